package scene

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"anim-cfg-export/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tidwall/gjson"
)

// TrackScene replays transform samples dumped from another tool:
//
//	{"objects": [{"name": "Door", "samples": [
//	    {"frame": 0, "position": [x, y, z], "rotation": [w, x, y, z]},
//	    {"frame": 1, "matrix": [16 values, row-major]}
//	]}]}
//
// The transform at frame f is the last sample at or before f; frames before
// the first sample use the first sample.
type TrackScene struct {
	names  []string
	tracks [][]sample // sorted by frame
	frame  int
}

type sample struct {
	frame int
	world mathutil.Transform
}

// LoadTracks reads and parses a JSON track file.
func LoadTracks(path string) (*TrackScene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	ts, err := ParseTracks(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return ts, nil
}

// ParseTracks parses an in-memory JSON track document.
func ParseTracks(raw []byte) (*TrackScene, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("scene: invalid track JSON")
	}
	objects := gjson.GetBytes(raw, "objects")
	if !objects.IsArray() {
		return nil, errors.New(`scene: track JSON has no "objects" array`)
	}

	ts := &TrackScene{}
	var parseErr error
	objects.ForEach(func(_, obj gjson.Result) bool {
		name := obj.Get("name").String()
		if name == "" {
			parseErr = errors.New("scene: track object without name")
			return false
		}
		var samples []sample
		for _, s := range obj.Get("samples").Array() {
			world, err := parseSample(s)
			if err != nil {
				parseErr = fmt.Errorf("scene: object %q frame %d: %w", name, s.Get("frame").Int(), err)
				return false
			}
			samples = append(samples, sample{frame: int(s.Get("frame").Int()), world: world})
		}
		if len(samples) == 0 {
			parseErr = fmt.Errorf("scene: object %q has no samples", name)
			return false
		}
		sort.SliceStable(samples, func(i, j int) bool { return samples[i].frame < samples[j].frame })
		ts.names = append(ts.names, name)
		ts.tracks = append(ts.tracks, samples)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return ts, nil
}

func parseSample(s gjson.Result) (mathutil.Transform, error) {
	if m := s.Get("matrix"); m.Exists() {
		vals := m.Array()
		if len(vals) != 16 {
			return mathutil.Transform{}, fmt.Errorf("matrix has %d values, want 16", len(vals))
		}
		var rowMajor [16]float64
		for i, v := range vals {
			rowMajor[i] = v.Float()
		}
		return mathutil.FromRowMajor(rowMajor), nil
	}

	var pos mgl64.Vec3
	if p := s.Get("position"); p.Exists() {
		vals := p.Array()
		if len(vals) != 3 {
			return mathutil.Transform{}, fmt.Errorf("position has %d values, want 3", len(vals))
		}
		pos = mgl64.Vec3{vals[0].Float(), vals[1].Float(), vals[2].Float()}
	}

	rot := mgl64.QuatIdent()
	if r := s.Get("rotation"); r.Exists() {
		vals := r.Array()
		if len(vals) != 4 {
			return mathutil.Transform{}, fmt.Errorf("rotation has %d values, want 4 (w, x, y, z)", len(vals))
		}
		rot = mgl64.Quat{W: vals[0].Float(), V: mgl64.Vec3{vals[1].Float(), vals[2].Float(), vals[3].Float()}}
		if rot.Len() == 0 {
			return mathutil.Transform{}, errors.New("rotation quaternion is zero")
		}
	}
	return mathutil.Compose(rot, pos), nil
}

func (ts *TrackScene) CurrentFrame() int { return ts.frame }

func (ts *TrackScene) SetCurrentFrame(f int) { ts.frame = f }

// WorldTransform returns the object's held sample at the current frame.
func (ts *TrackScene) WorldTransform(ref ObjectRef) mathutil.Transform {
	i := int(ref)
	if i < 0 || i >= len(ts.tracks) {
		return mathutil.Identity()
	}
	samples := ts.tracks[i]
	// first sample with frame > current, then step back one
	n := sort.Search(len(samples), func(k int) bool { return samples[k].frame > ts.frame })
	if n == 0 {
		return samples[0].world
	}
	return samples[n-1].world
}

func (ts *TrackScene) ObjectByName(name string) (ObjectRef, error) {
	for i, n := range ts.names {
		if n == name {
			return ObjectRef(i), nil
		}
	}
	return -1, notFound(name)
}

func (ts *TrackScene) Objects() []string {
	return append([]string(nil), ts.names...)
}

// FrameBounds spans the earliest and latest sample over all objects.
func (ts *TrackScene) FrameBounds() (int, int) {
	if len(ts.tracks) == 0 {
		return 0, 0
	}
	start, end := ts.tracks[0][0].frame, ts.tracks[0][0].frame
	for _, samples := range ts.tracks {
		if f := samples[0].frame; f < start {
			start = f
		}
		if f := samples[len(samples)-1].frame; f > end {
			end = f
		}
	}
	return start, end
}
