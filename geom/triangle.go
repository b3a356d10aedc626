package geom

import "math"

const triangleEpsilon = 1e-12

// Triangle holds three vertex indices into a mesh vertex array.
type Triangle [3]int

// IntersectTriangle returns the ray parameter of the intersection between r
// and the triangle (v0, v1, v2), using the Möller–Trumbore algorithm. Both
// faces are hit. ok is false for parallel rays, misses, and hits outside
// (tMin, tMax).
func IntersectTriangle(r Ray, v0, v1, v2 Vector3, tMin, tMax float64) (t float64, ok bool) {
	e1 := Sub(v1, v0)
	e2 := Sub(v2, v0)

	p := Cross(r.Direction, e2)
	det := Dot(e1, p)
	if math.Abs(det) < triangleEpsilon {
		return 0, false
	}

	invDet := 1 / det
	s := Sub(r.Origin, v0)

	u := Dot(s, p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := Cross(s, e1)

	v := Dot(r.Direction, q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = Dot(e2, q) * invDet
	if t <= tMin || t >= tMax {
		return 0, false
	}

	return t, true
}

// TriangleNormal returns the unit geometric normal of (v0, v1, v2) following
// counter-clockwise winding.
func TriangleNormal(v0, v1, v2 Vector3) Vector3 {
	return Normalize(Cross(Sub(v1, v0), Sub(v2, v0)))
}
