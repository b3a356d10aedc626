package simulate

import (
	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
)

// minValidityDistance is the sample offset below which a volumetric sample
// is assumed visible from the source centre without a ray query.
const minValidityDistance = 1e-6

func occluded(g scene.Geometry, from, to geom.Vector3) bool {
	r, dist := geom.NewRay(from, to)
	if dist == 0 {
		return false
	}

	return g.AnyHit(r, 0, dist)
}

func raycastOcclusion(g scene.Geometry, source, listener geom.Vector3) float64 {
	if occluded(g, source, listener) {
		return 0
	}

	return 1
}

// volumetricOcclusion returns the fraction of valid sample points inside the
// source sphere that the listener can see. Samples hidden from the source
// centre are invalid. With no valid samples the source counts as fully
// occluded.
func volumetricOcclusion(g scene.Geometry, source, listener geom.Vector3, radius float64, samples []geom.Vector3) float64 {
	valid, visible := 0, 0

	for _, s := range samples {
		p := geom.Add(source, geom.Scale(s, radius))

		if geom.Distance(source, p) > minValidityDistance && occluded(g, source, p) {
			continue
		}
		valid++

		if !occluded(g, p, listener) {
			visible++
		}
	}

	if valid == 0 {
		return 0
	}

	return float64(visible) / float64(valid)
}
