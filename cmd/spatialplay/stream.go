package main

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-spatial/engine"
)

const bytesPerFrame = 2 * 4 // stereo float32

// stream feeds a looping mono clip through a voice and serves the stereo
// result as little-endian float32 bytes. Read runs on the audio thread and
// does not allocate.
type stream struct {
	voice *engine.Voice
	clip  []float32
	pos   int

	in  []float32
	out []float32

	errs chan error
}

func newStream(v *engine.Voice, mono []float64) *stream {
	clip := make([]float32, len(mono))
	for i, x := range mono {
		clip[i] = float32(x)
	}

	block := v.MaxHostBlock()

	return &stream{
		voice: v,
		clip:  clip,
		in:    make([]float32, block),
		out:   make([]float32, 2*block),
		errs:  make(chan error, 1),
	}
}

// Read implements io.Reader.
func (s *stream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	written := 0

	for frames > 0 {
		n := min(frames, len(s.in))
		s.fill(s.in[:n])

		out := s.out[:2*n]
		if err := s.voice.ProcessInterleaved(s.in[:n], out); err != nil {
			s.report(err)
			clear(out)
		}

		for _, x := range out {
			binary.LittleEndian.PutUint32(p[written:], math.Float32bits(x))
			written += 4
		}

		frames -= n
	}

	return written, nil
}

// fill copies the next len(dst) clip samples, wrapping at the end.
func (s *stream) fill(dst []float32) {
	if len(s.clip) == 0 {
		clear(dst)
		return
	}

	for len(dst) > 0 {
		n := copy(dst, s.clip[s.pos:])
		dst = dst[n:]
		s.pos = (s.pos + n) % len(s.clip)
	}
}

// report hands err to the control goroutine without blocking.
func (s *stream) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Errors delivers processing errors from the audio thread.
func (s *stream) Errors() <-chan error { return s.errs }
