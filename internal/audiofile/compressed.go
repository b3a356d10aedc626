package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

// DecodeMP3 decodes a whole MP3 stream.
func DecodeMP3(r io.Reader) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audiofile: mp3: %w", err)
	}

	pcm := make([]int, len(raw)/2)
	for i := range pcm {
		pcm[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}

	if len(pcm) < mp3Channels {
		return nil, ErrEmpty
	}

	return &Clip{
		SampleRate: dec.SampleRate(),
		Channels:   deinterleave(pcm, mp3Channels, 1.0/32768),
	}, nil
}

// DecodeOgg decodes a whole Ogg Vorbis stream.
func DecodeOgg(r io.Reader) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: ogg: %w", err)
	}

	if format.Channels == 0 || len(data) < format.Channels {
		return nil, ErrEmpty
	}

	return &Clip{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(data, format.Channels, 1),
	}, nil
}
