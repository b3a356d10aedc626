package scene

import (
	"fmt"
	"math"
)

// NumBands is the number of frequency bands (low, mid, high) carried by
// materials and band-limited simulation results.
const NumBands = 3

// Material describes the acoustic surface properties of a triangle. Every
// value is in [0, 1]; arrays are indexed by band (low, mid, high).
type Material struct {
	Absorption   [NumBands]float64
	Scattering   float64
	Transmission [NumBands]float64
}

// DefaultMaterial is a generic, moderately absorptive, opaque surface.
var DefaultMaterial = Material{
	Absorption:   [NumBands]float64{0.10, 0.20, 0.30},
	Scattering:   0.05,
	Transmission: [NumBands]float64{0.100, 0.050, 0.030},
}

// Validate returns an error if any coefficient is outside [0, 1] or NaN.
func (m Material) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidMaterial, name, v)
		}
		return nil
	}

	for b := range NumBands {
		if err := check(fmt.Sprintf("absorption[%d]", b), m.Absorption[b]); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("transmission[%d]", b), m.Transmission[b]); err != nil {
			return err
		}
	}

	return check("scattering", m.Scattering)
}
