package simulate

import (
	"math"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/geom"
)

// Directivity is a weighted blend of a monopole and a dipole, raised to a
// power to sharpen the lobe. DipoleWeight 0 is omnidirectional, 0.5 a
// cardioid and 1 a figure-eight.
type Directivity struct {
	DipoleWeight float64
	DipolePower  float64
}

// Clamped returns d with DipoleWeight in [0, 1] and DipolePower in [1, 4].
// NaN values fall back to an omnidirectional source.
func (d Directivity) Clamped() Directivity {
	if math.IsNaN(d.DipoleWeight) {
		d.DipoleWeight = 0
	}
	if math.IsNaN(d.DipolePower) {
		d.DipolePower = 1
	}

	return Directivity{
		DipoleWeight: core.Clamp(d.DipoleWeight, 0, 1),
		DipolePower:  core.Clamp(d.DipolePower, 1, 4),
	}
}

// Evaluate returns the gain of the lobe toward point, seen from the source
// pose. A point at the source origin yields the on-axis gain.
func (d Directivity) Evaluate(source geom.CoordinateSpace, point geom.Vector3) float64 {
	d = d.Clamped()
	if d.DipoleWeight == 0 {
		return 1
	}

	cosine := 1.0
	if dir := geom.Sub(point, source.Origin); !geom.IsZero(dir) {
		local := source.DirectionToLocal(geom.Normalize(dir))
		// Local -z is the source's ahead axis.
		cosine = -local[2]
	}

	return math.Pow(math.Abs((1-d.DipoleWeight)+d.DipoleWeight*cosine), d.DipolePower)
}
