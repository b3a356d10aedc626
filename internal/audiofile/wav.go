package audiofile

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// DecodeWAV reads a 16, 24 or 32-bit integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	switch d.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	channels := int(d.NumChans)
	if channels == 0 || len(buf.Data) < channels {
		return nil, ErrEmpty
	}

	scale := 1 / math.Ldexp(1, int(d.BitDepth)-1)

	return &Clip{
		SampleRate: int(d.SampleRate),
		Channels:   deinterleave(buf.Data, channels, scale),
	}, nil
}

// EncodeWAV writes c as integer PCM with the given bit depth. Samples are
// clipped to [-1, 1].
func EncodeWAV(w io.WriteSeeker, c *Clip, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, bitDepth)
	}

	n := c.NumChannels()
	if n == 0 || c.SampleRate <= 0 {
		return ErrEmpty
	}

	full := math.Ldexp(1, bitDepth-1) - 1
	data := make([]int, c.Len()*n)

	for ch, samples := range c.Channels {
		for i, v := range samples {
			v = math.Max(-1, math.Min(1, v))
			data[i*n+ch] = int(math.Round(v * full))
		}
	}

	enc := wav.NewEncoder(w, c.SampleRate, bitDepth, n, wavFormatPCM)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: n, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: write wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiofile: close wav: %w", err)
	}

	return nil
}

// WriteWAV creates path and encodes c into it.
func WriteWAV(path string, c *Clip, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: %w", err)
	}

	if err := EncodeWAV(f, c, bitDepth); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
