package simulate

import "math"

// DefaultMinDistance is the inverse-distance floor in metres.
const DefaultMinDistance = 1.0

// DistanceAttenuationModel maps a distance in metres to a linear gain.
type DistanceAttenuationModel interface {
	Evaluate(distance float64) float64
}

// InverseDistanceModel is 1/d with d floored at MinDistance.
type InverseDistanceModel struct {
	MinDistance float64
}

// Evaluate implements DistanceAttenuationModel.
func (m InverseDistanceModel) Evaluate(distance float64) float64 {
	minDist := m.MinDistance
	if minDist <= 0 {
		minDist = DefaultMinDistance
	}

	return 1 / math.Max(distance, minDist)
}

// DistanceAttenuationFunc adapts a function to DistanceAttenuationModel.
type DistanceAttenuationFunc func(distance float64) float64

// Evaluate implements DistanceAttenuationModel.
func (f DistanceAttenuationFunc) Evaluate(distance float64) float64 {
	return f(distance)
}
