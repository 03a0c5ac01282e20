package bmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"anim-cfg-export/internal/crypto"
)

type builder struct {
	bytes.Buffer
}

func (b *builder) str(s string, n int) {
	buf := make([]byte, n)
	copy(buf, s)
	b.Write(buf)
}

func (b *builder) u16(v int) { binary.Write(&b.Buffer, binary.LittleEndian, uint16(v)) }
func (b *builder) i16(v int) { binary.Write(&b.Buffer, binary.LittleEndian, int16(v)) }
func (b *builder) f32(v float64) {
	binary.Write(&b.Buffer, binary.LittleEndian, math.Float32bits(float32(v)))
}

// sampleBody builds a model with one mesh, one 2-key action and three
// bones: a dummy, "Root" and "Arm" (child of Root).
func sampleBody() []byte {
	var b builder
	b.str("sample", 32)
	b.u16(1) // meshes
	b.u16(3) // bones
	b.u16(1) // actions

	// mesh: 1 vert, 1 normal, 1 uv, 1 tri
	b.i16(1)
	b.i16(1)
	b.i16(1)
	b.i16(1)
	b.i16(0)
	b.Write(make([]byte, 16+20+8+64))
	b.str(`tex\sword.jpg`, 32)

	// action 0: 2 keys, no locked positions
	b.i16(2)
	b.WriteByte(0)

	// bone 0: dummy
	b.WriteByte(1)

	// bone 1: Root
	b.WriteByte(0)
	b.str("Root", 32)
	b.i16(-1)
	for _, p := range [][3]float64{{0, 0, 0}, {1, 0, 0}} {
		b.f32(p[0])
		b.f32(p[1])
		b.f32(p[2])
	}
	for range 2 {
		b.f32(0)
		b.f32(0)
		b.f32(0)
	}

	// bone 2: Arm, child of Root. Name contains a Windows-1252 byte.
	b.WriteByte(0)
	b.str("Arm\xe9", 32)
	b.i16(1)
	for range 2 {
		b.f32(0)
		b.f32(2)
		b.f32(0)
	}
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(math.Pi / 2)
	return b.Bytes()
}

func checkSample(t *testing.T, m *Model) {
	t.Helper()
	if m.Name != "sample" {
		t.Fatalf("name = %q", m.Name)
	}
	if len(m.Meshes) != 1 || m.Meshes[0].TexPath != "tex/sword.jpg" || m.Meshes[0].NumTris != 1 {
		t.Fatalf("meshes = %+v", m.Meshes)
	}
	if len(m.Actions) != 1 || m.Actions[0].NumKeys != 2 {
		t.Fatalf("actions = %+v", m.Actions)
	}
	if len(m.Bones) != 3 {
		t.Fatalf("bones = %d, want 3", len(m.Bones))
	}
	if !m.Bones[0].IsDummy {
		t.Fatal("bone 0 should be a dummy")
	}
	root, arm := m.Bones[1], m.Bones[2]
	if root.Name != "Root" || root.Parent != -1 {
		t.Fatalf("root = %+v", root)
	}
	if arm.Name != "Armé" || arm.Parent != 1 {
		t.Fatalf("arm name/parent = %q/%d", arm.Name, arm.Parent)
	}
	if got := root.Keys[0][1].Position; got != [3]float64{1, 0, 0} {
		t.Fatalf("root key 1 position = %v", got)
	}
	if got := arm.Keys[0][1].Rotation[2]; math.Abs(got-math.Pi/2) > 1e-6 {
		t.Fatalf("arm key 1 rotZ = %v", got)
	}
}

func TestDecodeV10(t *testing.T) {
	raw := append([]byte("BMD\x0a"), sampleBody()...)
	m, err := Decode(raw, Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Version != 10 {
		t.Fatalf("version = %d", m.Version)
	}
	checkSample(t, m)
}

func encryptedFile(version byte, payload []byte) []byte {
	var b builder
	b.WriteString("BMD")
	b.WriteByte(version)
	binary.Write(&b.Buffer, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	return b.Bytes()
}

func TestDecodeV12(t *testing.T) {
	raw := encryptedFile(12, crypto.EncryptXOR(sampleBody()))
	m, err := Decode(raw, Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkSample(t, m)
}

func TestDecodeV15(t *testing.T) {
	body := sampleBody()
	if pad := len(body) % 16; pad != 0 {
		body = append(body, make([]byte, 16-pad)...)
	}
	var key [32]byte
	key[0] = 0x42
	raw := encryptedFile(15, crypto.EncryptLEA(body, key))

	if _, err := Decode(raw, Options{}); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("expected ErrEncrypted, got %v", err)
	}

	m, err := Decode(raw, Options{LEAKey: &key})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	checkSample(t, m)
}

func TestDecodeErrors(t *testing.T) {
	body := sampleBody()
	tests := []struct {
		name string
		raw  []byte
	}{
		{"bad magic", []byte("XYZ\x0a")},
		{"short", []byte("BM")},
		{"truncated bones", append([]byte("BMD\x0a"), body[:len(body)-10]...)},
		{"truncated v12 size", encryptedFile(12, nil)[:6]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.raw, Options{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// hugeCounts declares more actions and keys than the file can hold.
func hugeCounts(actions, keys int) []byte {
	var b builder
	b.WriteString("BMD\x0a")
	b.str("huge", 32)
	b.u16(0) // meshes
	b.u16(1) // bones
	b.u16(actions)
	for range actions {
		b.i16(keys)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	b.str("Root", 32)
	b.i16(-1)
	return b.Bytes()
}

func TestDecodeRejectsCountsBeyondData(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"keys beyond data", hugeCounts(200, 32767)},
		{"actions beyond data", hugeCounts(65535, 1)[:4+32+6+30]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.raw, Options{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeBoundsKeyTables(t *testing.T) {
	// 2000 zero-key actions and many tiny bones: the per-bone action
	// tables would outgrow the file.
	var b builder
	b.WriteString("BMD\x0a")
	b.str("wide", 32)
	b.u16(0)
	b.u16(400)
	b.u16(2000)
	for range 2000 {
		b.i16(0)
		b.WriteByte(0)
	}
	for range 400 {
		b.WriteByte(0)
		b.str("b", 32)
		b.i16(-1)
	}
	if _, err := Decode(b.Bytes(), Options{}); err == nil {
		t.Fatal("expected error for key tables larger than the file")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bmd")
	if err := os.WriteFile(path, append([]byte("BMD\x0a"), sampleBody()...), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(path, Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	checkSample(t, m)

	if _, err := Parse(filepath.Join(t.TempDir(), "missing.bmd"), Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestKeyAtClamps(t *testing.T) {
	b := Bone{Keys: [][]Key{{{Position: [3]float64{1}}, {Position: [3]float64{2}}}, nil}}
	tests := []struct {
		action, key int
		want        float64
		ok          bool
	}{
		{0, -3, 1, true},
		{0, 0, 1, true},
		{0, 1, 2, true},
		{0, 9, 2, true},
		{1, 0, 0, false},
		{5, 0, 0, false},
	}
	for _, tt := range tests {
		k, ok := b.KeyAt(tt.action, tt.key)
		if ok != tt.ok || k.Position[0] != tt.want {
			t.Errorf("KeyAt(%d, %d) = %v, %v", tt.action, tt.key, k, ok)
		}
	}
}
