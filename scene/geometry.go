package scene

import "github.com/cwbudde/algo-spatial/geom"

// Geometry answers ray queries. Distances are measured in units of the ray
// direction, so a unit-length direction yields metres.
type Geometry interface {
	ClosestHit(r geom.Ray, minDist, maxDist float64) (Hit, bool)
	AnyHit(r geom.Ray, minDist, maxDist float64) bool
}

var (
	_ Geometry = (*StaticMesh)(nil)
	_ Geometry = (*Scene)(nil)
)
