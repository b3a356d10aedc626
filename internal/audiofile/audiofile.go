// Package audiofile decodes source audio for the command-line hosts and
// HRIR sets, and writes rendered output as PCM WAV.
package audiofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
)

var (
	ErrUnsupportedFormat = errors.New("audiofile: unsupported format")
	ErrInvalidWAV        = errors.New("audiofile: invalid wav file")
	ErrEmpty             = errors.New("audiofile: no audio data")
)

// Clip is decoded audio in planar float64 form, samples in [-1, 1].
type Clip struct {
	SampleRate int
	Channels   [][]float64
}

// NumChannels returns the channel count.
func (c *Clip) NumChannels() int { return len(c.Channels) }

// Len returns the number of frames.
func (c *Clip) Len() int {
	if len(c.Channels) == 0 {
		return 0
	}

	return len(c.Channels[0])
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}

	return float64(c.Len()) / float64(c.SampleRate)
}

// Mono returns the channel average. A mono clip returns its only channel.
func (c *Clip) Mono() []float64 {
	if len(c.Channels) == 1 {
		return c.Channels[0]
	}

	out := make([]float64, c.Len())
	buffer.FromChannels(c.Channels...).DownmixTo(out)

	return out
}

// Load decodes the file at path, choosing the decoder by extension:
// .wav, .mp3 or .ogg.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}
	defer f.Close()

	var clip *Clip

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		clip, err = DecodeWAV(f)
	case ".mp3":
		clip, err = DecodeMP3(f)
	case ".ogg", ".oga":
		clip, err = DecodeOgg(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return clip, nil
}

// deinterleave splits frames of n interleaved channels into planar slices.
func deinterleave[T float32 | int](data []T, n int, scale float64) [][]float64 {
	frames := len(data) / n
	out := make([][]float64, n)

	for c := range out {
		out[c] = make([]float64, frames)
		for i := range frames {
			out[c][i] = float64(data[i*n+c]) * scale
		}
	}

	return out
}
