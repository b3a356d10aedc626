package audiofile

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/resample"
)

// Resample returns the clip converted to sampleRate. A clip already at
// that rate is returned as is.
func (c *Clip) Resample(sampleRate int) (*Clip, error) {
	if sampleRate == c.SampleRate {
		return c, nil
	}

	conv, err := resample.New(float64(c.SampleRate), float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	out := &Clip{SampleRate: sampleRate, Channels: make([][]float64, len(c.Channels))}
	for i, ch := range c.Channels {
		out.Channels[i] = conv.Convert(ch)
	}

	return out, nil
}
