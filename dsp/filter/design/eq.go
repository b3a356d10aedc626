package design

import (
	"math"

	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
)

// Band edges of the three-band EQ in Hz.
const (
	LowCutoff  = 800.0
	HighCutoff = 8000.0
)

// minBandGainDB keeps degenerate band gains from producing infinite shelves.
const minBandGainDB = -120.0

// ThreeBandEQ returns a low shelf at LowCutoff, a peak centred between the
// cutoffs spanning them, and a high shelf at HighCutoff, for the given
// linear band gains. Bands whose shelf or centre frequency is at or above
// Nyquist become passthrough sections.
func ThreeBandEQ(gains [3]float64, sampleRate float64) [3]biquad.Coefficients {
	center := math.Sqrt(LowCutoff * HighCutoff)
	peakQ := center / (HighCutoff - LowCutoff)

	out := [3]biquad.Coefficients{
		LowShelf(LowCutoff, gainDB(gains[0]), defaultQ, sampleRate),
		Peak(center, gainDB(gains[1]), peakQ, sampleRate),
		HighShelf(HighCutoff, gainDB(gains[2]), defaultQ, sampleRate),
	}

	for i := range out {
		if out[i] == (biquad.Coefficients{}) {
			out[i] = biquad.Passthrough()
		}
	}

	return out
}

func gainDB(linear float64) float64 {
	if !(linear > 0) {
		return minBandGainDB
	}

	return math.Max(20*math.Log10(linear), minBandGainDB)
}
