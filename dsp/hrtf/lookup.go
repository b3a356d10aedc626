package hrtf

import (
	"math"

	"github.com/cwbudde/algo-spatial/geom"
)

// MaxNeighbors is the largest neighbourhood Neighbors will blend.
const MaxNeighbors = 3

// Neighbor is one weighted entry of an interpolated lookup.
type Neighbor struct {
	Index  int
	Weight float64
}

// Nearest returns the index of the measured direction closest to dir.
func Nearest(p Provider, dir geom.Vector3) int {
	dir = geom.Normalize(dir)

	best, bestDot := 0, math.Inf(-1)
	for i := range p.NumDirections() {
		if d := geom.Dot(dir, p.Direction(i)); d > bestDot {
			best, bestDot = i, d
		}
	}

	return best
}

// Neighbors fills dst with the k closest measured directions to dir,
// weighted by inverse angular distance and normalized to sum to 1. k is
// clamped to [1, MaxNeighbors] and to the set size. An exact match gets the
// whole weight. The filled prefix of dst is returned; dst must have room
// for k entries.
func Neighbors(p Provider, dir geom.Vector3, k int, dst []Neighbor) []Neighbor {
	k = max(1, min(k, MaxNeighbors, p.NumDirections()))
	dir = geom.Normalize(dir)

	var angles [MaxNeighbors]float64
	dst = dst[:0]

	for i := range p.NumDirections() {
		a := angle(dir, p.Direction(i))

		pos := len(dst)
		for pos > 0 && a < angles[pos-1] {
			pos--
		}

		if pos >= k {
			continue
		}

		if len(dst) < k {
			dst = append(dst, Neighbor{})
		}

		copy(dst[pos+1:], dst[pos:len(dst)-1])
		copy(angles[pos+1:len(dst)], angles[pos:len(dst)-1])
		dst[pos] = Neighbor{Index: i}
		angles[pos] = a
	}

	const exact = 1e-9
	if angles[0] < exact {
		dst = dst[:1]
		dst[0].Weight = 1

		return dst
	}

	sum := 0.0
	for i := range dst {
		dst[i].Weight = 1 / angles[i]
		sum += dst[i].Weight
	}

	for i := range dst {
		dst[i].Weight /= sum
	}

	return dst
}

func angle(a, b geom.Vector3) float64 {
	return math.Acos(max(-1, min(1, geom.Dot(a, b))))
}
