package bmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"anim-cfg-export/internal/crypto"

	"golang.org/x/text/encoding/charmap"
)

// ErrEncrypted is returned for LEA-encrypted files when no key was supplied.
var ErrEncrypted = errors.New("bmd: v15 file needs a LEA key")

// Options controls decryption.
type Options struct {
	LEAKey *[32]byte
}

// Parse reads a BMD file and returns its meshes, actions and bones.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func Parse(filepath string, opts Options) (*Model, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", filepath, err)
	}
	m, err := Decode(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, filepath)
	}
	return m, nil
}

// Decode parses an in-memory BMD file.
func Decode(raw []byte, opts Options) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, errors.New("bmd: invalid header")
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v%d header", version)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v%d data", version)
		}
		if version == 12 {
			data = crypto.DecryptXOR(raw[8 : 8+size])
			break
		}
		if opts.LEAKey == nil {
			return nil, ErrEncrypted
		}
		data = crypto.DecryptLEA(raw[8:8+size], *opts.LEAKey)
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse()
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data  []byte
	off   int
	short bool // set once a read ran past the end of data
}

func (r *reader) take(n int) []byte {
	if n < 0 || r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) skip(n int) {
	r.take(n)
}

// readStr reads a fixed-width, NUL-padded Windows-1252 string.
func (r *reader) readStr(n int) string {
	s := r.take(n)
	for i, b := range s {
		if b == 0 {
			s = s[:i]
			break
		}
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(s)
	if err != nil {
		return string(s)
	}
	return string(decoded)
}

func (r *reader) readI16() int16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readF32() float64 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func (r *reader) readVec3() [3]float64 {
	return [3]float64{r.readF32(), r.readF32(), r.readF32()}
}

func (r *reader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) parse() (*Model, error) {
	m := &Model{Name: r.readStr(32)}
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > 100 {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	m.Meshes = make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		mesh := Mesh{
			NumVerts:   int(r.readI16()),
			NumNormals: int(r.readI16()),
			NumUVs:     int(r.readI16()),
			NumTris:    int(r.readI16()),
		}
		_ = r.readI16() // texture index

		r.skip(mesh.NumVerts * 16)   // node:i16, pad:i16, x,y,z:f32
		r.skip(mesh.NumNormals * 20) // node:i16, pad:i16, nx,ny,nz:f32, bind:i16, pad:i16
		r.skip(mesh.NumUVs * 8)      // u,v:f32
		r.skip(mesh.NumTris * 64)

		mesh.TexPath = strings.ReplaceAll(r.readStr(32), "\\", "/")
		if r.short {
			return nil, fmt.Errorf("bmd: truncated mesh %d", i)
		}
		m.Meshes = append(m.Meshes, mesh)
	}

	// Each action header is 3 bytes.
	if actionCount*3 > r.remaining() {
		return nil, fmt.Errorf("bmd: %d actions exceed remaining %d bytes", actionCount, r.remaining())
	}
	m.Actions = make([]Action, actionCount)
	for a := range m.Actions {
		numKeys := int(r.readI16())
		lockPos := r.readByte() > 0
		if lockPos {
			r.skip(numKeys * 12) // float32 x,y,z per key
		}
		m.Actions[a] = Action{NumKeys: numKeys, LockPositions: lockPos}
	}

	m.Bones = make([]Bone, 0, min(boneCount, r.remaining()))
	slots := 0 // per-action key tables allocated so far, bounded by file size
	for b := 0; b < boneCount; b++ {
		if r.readByte() > 0 {
			m.Bones = append(m.Bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{
			Name:   r.readStr(32),
			Parent: int(r.readI16()),
		}
		if r.short {
			return nil, fmt.Errorf("bmd: truncated bone %d", b)
		}
		if slots += actionCount; slots > len(r.data) {
			return nil, fmt.Errorf("bmd: bone %d: %d bones x %d actions exceed file size", b, boneCount, actionCount)
		}
		bone.Keys = make([][]Key, actionCount)
		for a, action := range m.Actions {
			if action.NumKeys <= 0 {
				continue
			}
			// position + rotation, 3 float32 each
			if action.NumKeys*24 > r.remaining() {
				return nil, fmt.Errorf("bmd: truncated bone %d action %d (%d keys)", b, a, action.NumKeys)
			}
			keys := make([]Key, action.NumKeys)
			for k := range keys {
				keys[k].Position = r.readVec3()
			}
			for k := range keys {
				keys[k].Rotation = r.readVec3()
			}
			bone.Keys[a] = keys
		}
		if r.short {
			return nil, fmt.Errorf("bmd: truncated bone %d", b)
		}
		m.Bones = append(m.Bones, bone)
	}

	return m, nil
}
