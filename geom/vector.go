package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Vector3 is a 3D vector in meters (positions) or unitless (directions).
type Vector3 = vec3.T

// Axis-aligned unit vectors.
var (
	UnitX = Vector3{1, 0, 0}
	UnitY = Vector3{0, 1, 0}
	UnitZ = Vector3{0, 0, 1}
)

// Vec returns the vector (x, y, z).
func Vec(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

// Add returns a + b.
func Add(a, b Vector3) Vector3 {
	return vec3.Add(&a, &b)
}

// Sub returns a - b.
func Sub(a, b Vector3) Vector3 {
	return vec3.Sub(&a, &b)
}

// Scale returns v * s.
func Scale(v Vector3, s float64) Vector3 {
	return v.Scaled(s)
}

// Dot returns the dot product of a and b.
func Dot(a, b Vector3) float64 {
	return vec3.Dot(&a, &b)
}

// Cross returns the cross product a x b.
func Cross(a, b Vector3) Vector3 {
	return vec3.Cross(&a, &b)
}

// Length returns the Euclidean length of v.
func Length(v Vector3) float64 {
	return v.Length()
}

// Distance returns |a - b|.
func Distance(a, b Vector3) float64 {
	d := Sub(a, b)
	return d.Length()
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func Normalize(v Vector3) Vector3 {
	l := v.Length()
	if l == 0 || math.IsNaN(l) {
		return v
	}

	return v.Scaled(1 / l)
}

// IsZero reports whether all components of v are exactly zero.
func IsZero(v Vector3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vector3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}

	return true
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b Vector3, t float64) Vector3 {
	return Add(a, Scale(Sub(b, a), t))
}
