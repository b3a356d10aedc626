package simulate

import (
	"math"

	"github.com/cwbudde/algo-spatial/geom"
)

// radicalInverse returns the van der Corput value of index in base.
func radicalInverse(index, base int) float64 {
	inv := 1 / float64(base)
	f := inv
	r := 0.0

	for index > 0 {
		r += f * float64(index%base)
		index /= base
		f *= inv
	}

	return r
}

// haltonBall returns n points distributed uniformly inside the unit ball,
// drawn from the Halton sequence in bases 2, 3 and 5. Index 0 of the
// sequence is skipped so every point is distinct from the centre.
func haltonBall(n int) []geom.Vector3 {
	points := make([]geom.Vector3, n)

	for i := range points {
		u := radicalInverse(i+1, 2)
		v := radicalInverse(i+1, 3)
		w := radicalInverse(i+1, 5)

		r := math.Cbrt(u)
		cosTheta := 2*v - 1
		sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
		phi := 2 * math.Pi * w

		points[i] = geom.Vec(
			r*sinTheta*math.Cos(phi),
			r*sinTheta*math.Sin(phi),
			r*cosTheta,
		)
	}

	return points
}
