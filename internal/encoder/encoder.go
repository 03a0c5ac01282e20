// Package encoder turns consecutive transforms into model.cfg animation
// segments: a translation along a unit direction and a rotation about an
// axis through the current position.
package encoder

import (
	"anim-cfg-export/internal/mathutil"

	"github.com/go-gl/mathgl/mgl64"
)

// Segment bridges transforms[Index] and transforms[Index+1]. Vectors are in
// source axes; Records applies the engine remap.
type Segment struct {
	Index     int
	Length    float64    // |d|
	Direction mgl64.Vec3 // d/|d|, or UnitX when Length rounds to zero
	Angle     float64    // degrees, [0, 180]
	Axis      mgl64.Vec3 // unit, or UnitX when Angle rounds to zero
	Pivot     mgl64.Vec3 // position of the later transform
	MinValue  float64
	MaxValue  float64
}

// Encode produces len(ts)-1 segments in order. Fewer than two transforms
// yield none.
func Encode(ts []mathutil.Transform, cfg ChannelConfig) []Segment {
	if len(ts) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(ts)-1)
	for i := 0; i+1 < len(ts); i++ {
		segs = append(segs, encodePair(i, ts[i], ts[i+1], len(ts), cfg))
	}
	return segs
}

func encodePair(i int, prev, curr mathutil.Transform, n int, cfg ChannelConfig) Segment {
	p := mathutil.Translation(curr)
	d := p.Sub(mathutil.Translation(prev))
	length := d.Len()

	dn := mathutil.UnitX
	if !mathutil.ZeroAt(length, cfg.Precision) {
		dn = d.Mul(1 / length)
	}

	axis, angle := mathutil.AxisAngle(mathutil.DeltaRotation(prev, curr))
	if mathutil.ZeroAt(angle, cfg.Precision) {
		axis = mathutil.UnitX
	}

	lo, hi := ValueRange(i, n, cfg.MinValue, cfg.MaxValue)
	return Segment{
		Index:     i,
		Length:    length,
		Direction: dn,
		Angle:     angle,
		Axis:      axis,
		Pivot:     p,
		MinValue:  lo,
		MaxValue:  hi,
	}
}

// ValueRange returns the i-th of n-1 equal slices of [lo, hi].
func ValueRange(i, n int, lo, hi float64) (float64, float64) {
	steps := float64(n - 1)
	return lo + float64(i)*(hi-lo)/steps, lo + float64(i+1)*(hi-lo)/steps
}
