package geom

import "math"

// CoordinateSpace is an orthonormal right-handed basis plus an origin,
// describing the pose of a listener or a source. Local coordinates use
// x = right, y = up and z = -ahead.
type CoordinateSpace struct {
	Right  Vector3
	Up     Vector3
	Ahead  Vector3
	Origin Vector3
}

// DefaultCoordinateSpace is the world-aligned pose at the origin, looking
// down -Z with +Y up.
func DefaultCoordinateSpace() CoordinateSpace {
	return CoordinateSpace{
		Right: UnitX,
		Up:    UnitY,
		Ahead: Vector3{0, 0, -1},
	}
}

// NewCoordinateSpaceFromVector builds a basis from an ahead vector alone. The
// up vector is chosen as world +Y projected onto the plane orthogonal to
// ahead, falling back to world +Z when ahead is (anti)parallel to +Y. A zero
// ahead vector yields the default orientation.
func NewCoordinateSpaceFromVector(ahead, origin Vector3) CoordinateSpace {
	if IsZero(ahead) || !IsFinite(ahead) {
		cs := DefaultCoordinateSpace()
		cs.Origin = origin

		return cs
	}

	a := Normalize(ahead)

	hint := UnitY
	if math.Abs(Dot(a, hint)) > 0.999 {
		hint = UnitZ
	}

	right := Normalize(Cross(a, hint))
	up := Cross(right, a)

	return CoordinateSpace{Right: right, Up: up, Ahead: a, Origin: origin}
}

// NewCoordinateSpace builds a basis from host-provided ahead and up vectors,
// re-orthogonalizing up against ahead. If up is degenerate the result is the
// same as [NewCoordinateSpaceFromVector].
func NewCoordinateSpace(ahead, up, origin Vector3) CoordinateSpace {
	if IsZero(ahead) || !IsFinite(ahead) {
		return NewCoordinateSpaceFromVector(ahead, origin)
	}

	a := Normalize(ahead)
	u := Sub(up, Scale(a, Dot(up, a)))
	if Length(u) < 1e-9 || !IsFinite(u) {
		return NewCoordinateSpaceFromVector(a, origin)
	}

	u = Normalize(u)
	right := Normalize(Cross(a, u))
	u = Cross(right, a)

	return CoordinateSpace{Right: right, Up: u, Ahead: a, Origin: origin}
}

// DirectionToLocal expresses a world-space direction in local coordinates.
func (cs CoordinateSpace) DirectionToLocal(d Vector3) Vector3 {
	return Vector3{Dot(d, cs.Right), Dot(d, cs.Up), -Dot(d, cs.Ahead)}
}

// DirectionToWorld maps a local direction back to world space.
func (cs CoordinateSpace) DirectionToWorld(d Vector3) Vector3 {
	w := Scale(cs.Right, d[0])
	w = Add(w, Scale(cs.Up, d[1]))

	return Add(w, Scale(cs.Ahead, -d[2]))
}

// PointToLocal expresses a world-space point relative to the origin in
// local coordinates.
func (cs CoordinateSpace) PointToLocal(p Vector3) Vector3 {
	return cs.DirectionToLocal(Sub(p, cs.Origin))
}
