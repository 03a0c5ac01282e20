package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Transform is a rigid 4×4 homogeneous transform (rotation + translation, unit scale).
// mgl64 stores it column-major; use FromRowMajor for row-major sources.
type Transform = mgl64.Mat4

// Identity returns the identity transform.
func Identity() Transform {
	return mgl64.Ident4()
}

// Compose builds a transform that rotates by q and then translates by t.
func Compose(q mgl64.Quat, t mgl64.Vec3) Transform {
	return mgl64.Translate3D(t[0], t[1], t[2]).Mul4(q.Normalize().Mat4())
}

// FromRowMajor builds a transform from 16 values stored row by row.
func FromRowMajor(v [16]float64) Transform {
	var m Transform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, v[r*4+c])
		}
	}
	return m
}

// Translation returns the translation column of m.
func Translation(m Transform) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// Rotation returns the rotation part of m as a unit quaternion.
func Rotation(m Transform) mgl64.Quat {
	return mgl64.Mat4ToQuat(m).Normalize()
}

// Relative returns inverse(parent) × child.
func Relative(parent, child Transform) Transform {
	return parent.Inv().Mul4(child)
}

// IsIdentity checks if the matrix is approximately identity.
func IsIdentity(m Transform) bool {
	return m.ApproxEqualThreshold(mgl64.Ident4(), 1e-8)
}
