package simulate

import (
	"math"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
)

// transmissionEpsilon is how far past a hit the next transmission ray
// starts, in metres.
const transmissionEpsilon = 1e-4

// transmission accumulates per-band transmission coefficients of surfaces
// crossed between listener and source. Rays alternate between a cursor
// walking from the listener and one walking from the source; tracing stops
// when the cursors meet, a ray misses, or maxRays rays were cast. With two
// or more hits the per-band square root of the product is returned, since
// hits usually come in front/back pairs of one occluder.
func transmission(g scene.Geometry, source, listener geom.Vector3, maxRays int) [NumBands]float64 {
	result := [NumBands]float64{1, 1, 1}

	toSource, dist := geom.NewRay(listener, source)
	if dist == 0 {
		return result
	}

	toListener := geom.Scale(toSource.Direction, -1)

	var travelled [2]float64 // 0: from listener, 1: from source
	hits := 0

	for i := range maxRays {
		remaining := dist - travelled[0] - travelled[1]
		if remaining <= 0 {
			break
		}

		side := i % 2

		var r geom.Ray
		if side == 0 {
			r = geom.Ray{Origin: toSource.PointAt(travelled[0]), Direction: toSource.Direction}
		} else {
			r = geom.Ray{Origin: geom.Add(source, geom.Scale(toListener, travelled[1])), Direction: toListener}
		}

		hit, ok := g.ClosestHit(r, 0, remaining)
		if !ok {
			break
		}

		for b := range NumBands {
			result[b] *= hit.Material.Transmission[b]
		}
		hits++

		travelled[side] += hit.Distance + transmissionEpsilon
	}

	if hits >= 2 {
		for b := range NumBands {
			result[b] = math.Sqrt(result[b])
		}
	}

	return result
}
