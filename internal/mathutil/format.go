package mathutil

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// SwapYZ remaps a vector into the engine's axis order (x, z, y).
func SwapYZ(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[2], v[1]}
}

// FormatFixed renders v with exactly precision decimal places, never in
// scientific notation.
func FormatFixed(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// RoundTo rounds v to precision decimal places using the same correctly
// rounded conversion as FormatFixed, so the two never disagree.
func RoundTo(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(FormatFixed(v, precision), 64)
	if err != nil {
		return v
	}
	return r
}

// ZeroAt reports whether v rounds to zero at precision decimal places.
func ZeroAt(v float64, precision int) bool {
	return RoundTo(v, precision) == 0
}
