package encoder

import (
	"anim-cfg-export/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind distinguishes the two records emitted per segment.
type Kind int

const (
	Translation Kind = iota
	Rotation
)

func (k Kind) String() string {
	if k == Rotation {
		return "rot"
	}
	return "trans"
}

// Record is one engine animation class, already in engine axes (x, z, y).
type Record struct {
	Kind       Kind
	Index      int
	AxisPos    mgl64.Vec3 // zero for Translation
	AxisDir    mgl64.Vec3
	Angle      float64 // zero for Translation
	AxisOffset float64 // zero for Rotation
	MinValue   float64
	MaxValue   float64
}

// Records returns the translation record followed by the rotation record.
func (s Segment) Records() [2]Record {
	return [2]Record{
		{
			Kind:       Translation,
			Index:      s.Index,
			AxisDir:    mathutil.SwapYZ(s.Direction),
			AxisOffset: s.Length,
			MinValue:   s.MinValue,
			MaxValue:   s.MaxValue,
		},
		{
			Kind:     Rotation,
			Index:    s.Index,
			AxisPos:  mathutil.SwapYZ(s.Pivot),
			AxisDir:  mathutil.SwapYZ(s.Axis),
			Angle:    s.Angle,
			MinValue: s.MinValue,
			MaxValue: s.MaxValue,
		},
	}
}
