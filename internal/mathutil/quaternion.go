package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// UnitX is the fallback axis for degenerate directions.
var UnitX = mgl64.Vec3{1, 0, 0}

// EulerToQuat converts Euler XYZ (radians) to a quaternion.
// Matches MU Online's bmdAngleToQuaternion function (Rz · Ry · Rx).
func EulerToQuat(rx, ry, rz float64) mgl64.Quat {
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)

	return mgl64.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl64.Vec3{
			sx*cy*cz - cx*sy*sz, // x
			cx*sy*cz + sx*cy*sz, // y
			cx*cy*sz - sx*sy*cz, // z
		},
	}
}

// AxisAngle decomposes q into a unit axis and an angle in degrees within [0, 180].
// The quaternion is canonicalised to w >= 0 first. A rotation too small to
// define an axis reports UnitX.
func AxisAngle(q mgl64.Quat) (mgl64.Vec3, float64) {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	// atan2 stays accurate near identity where acos(w) does not.
	s := q.V.Len()
	angle := mgl64.RadToDeg(2 * math.Atan2(s, q.W))
	if s < 1e-12 {
		return UnitX, angle
	}
	return q.V.Mul(1 / s), angle
}

// DeltaRotation returns curr · inverse(prev) for the rotation parts of two transforms.
func DeltaRotation(prev, curr Transform) mgl64.Quat {
	return Rotation(curr.Mul4(prev.Inv()))
}
