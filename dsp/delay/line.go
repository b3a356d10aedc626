// Package delay provides a circular delay line with per-sample and block
// access.
package delay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/interp"
)

// ErrInvalidSize is returned for non-positive delay line sizes.
var ErrInvalidSize = errors.New("delay: size must be > 0")

// Line is a circular delay line. A delay of d samples reads the sample that
// was written d writes ago, so a line of size n supports delays 1..n.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// Option configures a Line.
type Option func(*Line)

// WithMode selects the interpolation used by ReadFractional.
func WithMode(m interp.Mode) Option {
	return func(d *Line) { d.mode = m }
}

// New returns a delay line of fixed size.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	d := &Line{buffer: make([]float64, size), mode: interp.Hermite}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. Delays outside 1..Len are
// clamped.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	delay = clampDelay(delay, size)

	return d.buffer[(d.writePos-delay+size)%size]
}

// ReadFractional reads a fractional delay measured from the most recent
// write: 0 returns the last sample written. The delay is clamped to
// [0, Len-3].
func (d *Line) ReadFractional(delay float64) float64 {
	maxDelay := float64(len(d.buffer) - 3)
	if !(delay > 0) {
		delay = 0
	}

	if delay > maxDelay {
		delay = max(maxDelay, 0)
	}

	p := int(math.Floor(delay))
	t := delay - float64(p)

	x0 := d.Read(p + 1)
	x1 := d.Read(p + 2)

	if d.mode == interp.Linear {
		return interp.Linear2(t, x0, x1)
	}

	xm1 := d.Read(max(p, 1))
	x2 := d.Read(p + 3)

	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// WriteBlock appends src to the line.
func (d *Line) WriteBlock(src []float64) {
	size := len(d.buffer)
	if len(src) > size {
		src = src[len(src)-size:]
	}

	n := copy(d.buffer[d.writePos:], src)
	if n < len(src) {
		copy(d.buffer, src[n:])
	}

	d.writePos = (d.writePos + len(src)) % size
}

// ReadBlock fills dst with the next len(dst) delayed samples, as if each
// sample were read with Read(delay) right before the matching write of a
// following WriteBlock. len(dst) must not exceed delay; the excess is
// zeroed.
func (d *Line) ReadBlock(dst []float64, delay int) {
	size := len(d.buffer)
	delay = clampDelay(delay, size)

	n := min(len(dst), delay)
	start := (d.writePos - delay + size) % size

	m := copy(dst[:n], d.buffer[start:])
	if m < n {
		copy(dst[m:n], d.buffer)
	}

	clear(dst[n:])
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

func clampDelay(delay, size int) int {
	return min(max(delay, 1), size)
}
