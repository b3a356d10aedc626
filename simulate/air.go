package simulate

import "math"

// DefaultAirAbsorptionCoefficients are the per-band exponential decay
// constants in 1/m for low, mid and high bands.
var DefaultAirAbsorptionCoefficients = [NumBands]float64{0.0002, 0.0017, 0.0182}

// AirAbsorptionModel maps a distance and band index to a linear gain.
type AirAbsorptionModel interface {
	Evaluate(distance float64, band int) float64
}

// ExponentialAirAbsorption evaluates exp(-Coefficients[band] * distance).
type ExponentialAirAbsorption struct {
	Coefficients [NumBands]float64
}

// DefaultAirAbsorption returns the exponential model with the default
// coefficients.
func DefaultAirAbsorption() ExponentialAirAbsorption {
	return ExponentialAirAbsorption{Coefficients: DefaultAirAbsorptionCoefficients}
}

// Evaluate implements AirAbsorptionModel. Out-of-range bands return 1.
func (m ExponentialAirAbsorption) Evaluate(distance float64, band int) float64 {
	if band < 0 || band >= NumBands {
		return 1
	}

	return math.Exp(-m.Coefficients[band] * distance)
}

// AirAbsorptionFunc adapts a function to AirAbsorptionModel.
type AirAbsorptionFunc func(distance float64, band int) float64

// Evaluate implements AirAbsorptionModel.
func (f AirAbsorptionFunc) Evaluate(distance float64, band int) float64 {
	return f(distance, band)
}
