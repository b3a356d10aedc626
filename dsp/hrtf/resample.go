package hrtf

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/resample"
	"github.com/cwbudde/algo-spatial/geom"
)

// Resample converts every HRIR of p to sampleRate. Onsets keep their time
// position, so interaural delays survive the conversion.
func Resample(p Provider, sampleRate float64, opts ...resample.Option) (*Dataset, error) {
	c, err := resample.New(p.SampleRate(), sampleRate, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHRTF, err)
	}

	dirs := make([]geom.Vector3, p.NumDirections())
	hrirs := make([]HRIR, p.NumDirections())

	for i := range dirs {
		dirs[i] = p.Direction(i)

		h := p.HRIR(i)
		hrirs[i] = HRIR{Left: c.Convert(h.Left), Right: c.Convert(h.Right)}
	}

	return NewDataset(sampleRate, dirs, hrirs)
}
