package geom

// Ray is a half-line Origin + t*Direction. Direction is usually unit length,
// in which case t is a distance in meters. Rays transformed into instance
// space keep their world parameterization and may be non-unit.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// NewRay returns a ray from origin towards target with a unit direction, and
// the distance between the two points. A zero-length segment yields a zero
// direction and distance 0.
func NewRay(origin, target Vector3) (Ray, float64) {
	d := Sub(target, origin)
	dist := d.Length()
	if dist == 0 {
		return Ray{Origin: origin}, 0
	}

	return Ray{Origin: origin, Direction: Scale(d, 1/dist)}, dist
}

// PointAt returns Origin + t*Direction.
func (r Ray) PointAt(t float64) Vector3 {
	return Add(r.Origin, Scale(r.Direction, t))
}
