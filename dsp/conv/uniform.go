package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Filter is an impulse response split into block-sized partitions and
// transformed to the frequency domain for one UniformConvolver geometry.
// A Filter may be shared by any number of convolvers with the same block
// size and partition count.
type Filter struct {
	blockSize  int
	partitions [][]complex128
	used       int // partitions that carry non-zero taps
}

// NumPartitions returns the number of partitions holding impulse response
// data.
func (f *Filter) NumPartitions() int { return f.used }

// SetWeighted overwrites f with the spectral weighted sum of srcs. All
// filters must come from convolvers with the same geometry as f. It does
// not allocate.
func (f *Filter) SetWeighted(srcs []*Filter, weights []float64) error {
	if len(srcs) != len(weights) {
		return fmt.Errorf("%w: %d filters, %d weights", ErrLengthMismatch, len(srcs), len(weights))
	}

	for _, s := range srcs {
		if s.blockSize != f.blockSize || len(s.partitions) != len(f.partitions) {
			return ErrFilterGeometry
		}
	}

	f.used = 0

	for p, dst := range f.partitions {
		clear(dst)

		for i, s := range srcs {
			if p >= s.used {
				continue
			}

			w := complex(weights[i], 0)
			for k, v := range s.partitions[p] {
				dst[k] += w * v
			}

			f.used = max(f.used, p+1)
		}
	}

	return nil
}

// UniformConvolver is a uniformly partitioned overlap-save convolver. Input
// is pushed one block at a time into a frequency-domain delay line; any
// number of filters can then be applied to the same input history, which
// lets a stereo pair of impulse responses share one forward transform.
//
// The output has no latency beyond the block: the result of Convolve after
// Push(x) is the block-aligned output for x.
type UniformConvolver struct {
	blockSize     int
	fftSize       int
	numPartitions int

	plan *algofft.Plan[complex128]

	window []float64      // last fftSize input samples
	fdl    [][]complex128 // input spectra, newest at head
	head   int

	scratch []complex128
	acc     []complex128
	fade    []float64
}

// NewUniformConvolver returns a convolver for blocks of blockSize samples
// and impulse responses of at most maxIRLen taps.
func NewUniformConvolver(blockSize, maxIRLen int) (*UniformConvolver, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	if maxIRLen <= 0 {
		return nil, ErrEmptyKernel
	}

	fftSize := nextPowerOf2(2 * blockSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	numPartitions := (maxIRLen + blockSize - 1) / blockSize

	c := &UniformConvolver{
		blockSize:     blockSize,
		fftSize:       fftSize,
		numPartitions: numPartitions,
		plan:          plan,
		window:        make([]float64, fftSize),
		fdl:           make([][]complex128, numPartitions),
		scratch:       make([]complex128, fftSize),
		acc:           make([]complex128, fftSize),
		fade:          make([]float64, blockSize),
	}

	for i := range c.fdl {
		c.fdl[i] = make([]complex128, fftSize)
	}

	return c, nil
}

// BlockSize returns the block size.
func (c *UniformConvolver) BlockSize() int { return c.blockSize }

// NumPartitions returns the partition count of the frequency-domain delay
// line.
func (c *UniformConvolver) NumPartitions() int { return c.numPartitions }

// MaxIRLen returns the longest impulse response the convolver accepts.
func (c *UniformConvolver) MaxIRLen() int { return c.numPartitions * c.blockSize }

// NewFilter partitions and transforms ir. It allocates and is meant to be
// called outside the audio path.
func (c *UniformConvolver) NewFilter(ir []float64) (*Filter, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyKernel
	}

	if len(ir) > c.MaxIRLen() {
		return nil, fmt.Errorf("%w: %d taps, max %d", ErrKernelTooLong, len(ir), c.MaxIRLen())
	}

	f := c.NewEmptyFilter()
	buf := make([]complex128, c.fftSize)

	for p := range f.partitions {
		start := p * c.blockSize
		if start >= len(ir) {
			break
		}

		clear(buf)

		for i, v := range ir[start:min(start+c.blockSize, len(ir))] {
			buf[i] = complex(v, 0)
		}

		if err := c.plan.Forward(f.partitions[p], buf); err != nil {
			return nil, fmt.Errorf("conv: failed to compute filter FFT: %w", err)
		}

		f.used = p + 1
	}

	return f, nil
}

// NewEmptyFilter returns a silent filter with this convolver's geometry,
// for use as a SetWeighted destination.
func (c *UniformConvolver) NewEmptyFilter() *Filter {
	f := &Filter{
		blockSize:  c.blockSize,
		partitions: make([][]complex128, c.numPartitions),
	}

	for i := range f.partitions {
		f.partitions[i] = make([]complex128, c.fftSize)
	}

	return f
}

// Push appends one block of input and transforms the sliding window into
// the delay line.
func (c *UniformConvolver) Push(block []float64) error {
	if len(block) != c.blockSize {
		return fmt.Errorf("%w: expected %d samples, got %d", ErrLengthMismatch, c.blockSize, len(block))
	}

	copy(c.window, c.window[c.blockSize:])
	copy(c.window[c.fftSize-c.blockSize:], block)

	for i, v := range c.window {
		c.scratch[i] = complex(v, 0)
	}

	c.head--
	if c.head < 0 {
		c.head = c.numPartitions - 1
	}

	if err := c.plan.Forward(c.fdl[c.head], c.scratch); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	return nil
}

// Convolve writes the current output block of f into dst, overwriting it.
func (c *UniformConvolver) Convolve(dst []float64, f *Filter) error {
	if len(dst) != c.blockSize {
		return fmt.Errorf("%w: expected %d samples, got %d", ErrLengthMismatch, c.blockSize, len(dst))
	}

	if f.blockSize != c.blockSize || len(f.partitions) != c.numPartitions {
		return ErrFilterGeometry
	}

	clear(c.acc)

	for p := range f.used {
		x := c.fdl[(c.head+p)%c.numPartitions]
		h := f.partitions[p]

		for k := range c.acc {
			c.acc[k] += x[k] * h[k]
		}
	}

	if err := c.plan.Inverse(c.scratch, c.acc); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	valid := c.scratch[c.fftSize-c.blockSize:]
	for i := range dst {
		dst[i] = real(valid[i])
	}

	return nil
}

// ConvolveCrossfade writes a block that fades linearly from the output of
// from to the output of to over the block.
func (c *UniformConvolver) ConvolveCrossfade(dst []float64, from, to *Filter) error {
	if err := c.Convolve(c.fade, from); err != nil {
		return err
	}

	if err := c.Convolve(dst, to); err != nil {
		return err
	}

	n := float64(len(dst))
	for i := range dst {
		w := float64(i+1) / n
		dst[i] = c.fade[i] + w*(dst[i]-c.fade[i])
	}

	return nil
}

// Reset clears the input history.
func (c *UniformConvolver) Reset() {
	clear(c.window)

	for _, x := range c.fdl {
		clear(x)
	}

	c.head = 0
}
