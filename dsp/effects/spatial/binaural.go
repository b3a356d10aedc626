package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/conv"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/hrtf"
	"github.com/cwbudde/algo-spatial/geom"
)

var (
	// ErrSampleRateMismatch is returned when an HRIR set was measured at a
	// different rate than the processor runs at.
	ErrSampleRateMismatch = errors.New("spatial: hrtf sample rate does not match processor")
	// ErrFrameSize is recorded when Apply or Tail gets buffers that do not
	// hold one frame.
	ErrFrameSize = errors.New("spatial: buffer does not match frame size")
)

// Interpolation selects how HRIRs are chosen for directions between
// measurements.
type Interpolation int

const (
	// InterpolationNearest uses the closest measured direction.
	InterpolationNearest Interpolation = iota
	// InterpolationBilinear blends the three closest directions weighted
	// by inverse angular distance.
	InterpolationBilinear
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationNearest:
		return "nearest"
	case InterpolationBilinear:
		return "bilinear"
	default:
		return "unknown"
	}
}

func (i Interpolation) neighbors() int {
	if i == InterpolationBilinear {
		return hrtf.MaxNeighbors
	}

	return 1
}

// BinauralEffectParams drive one frame of a BinauralEffect.
type BinauralEffectParams struct {
	// Direction points from the listener to the source in listener-local
	// coordinates. It need not be normalized. A zero vector keeps the
	// previous direction.
	Direction     geom.Vector3
	Interpolation Interpolation
}

// earPair is the left and right filter of one HRIR.
type earPair [2]*conv.Filter

// selection identifies the blend of measured directions in use.
type selection struct {
	n         int
	neighbors [hrtf.MaxNeighbors]hrtf.Neighbor
}

// BinauralEffect renders channel 0 of its input to a stereo output with
// HRIR convolution.
type BinauralEffect struct {
	provider hrtf.Provider
	conv     *conv.UniformConvolver
	frame    int

	measured []earPair

	// current holds the blended HRIR in use; next is filled when the
	// selection changes and swapped in after the crossfade frame.
	current earPair
	next    earPair

	sel       selection
	direction geom.Vector3
	started   bool
	tailLeft  int

	nbuf    []hrtf.Neighbor
	srcs    []*conv.Filter
	weights []float64
	silence []float64

	err error
}

// NewBinauralEffect prepares every HRIR of p for frames of cfg. It
// allocates in proportion to the HRIR set and should run outside the audio
// path.
func NewBinauralEffect(cfg core.ProcessorConfig, p hrtf.Provider) (*BinauralEffect, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if p == nil || p.NumDirections() == 0 {
		return nil, fmt.Errorf("%w: empty hrir set", hrtf.ErrMalformedHRTF)
	}

	if math.Abs(p.SampleRate()-cfg.SampleRate) > 1e-6 {
		return nil, fmt.Errorf("%w: %v Hz vs %v Hz", ErrSampleRateMismatch, p.SampleRate(), cfg.SampleRate)
	}

	c, err := conv.NewUniformConvolver(cfg.FrameSize, p.Length())
	if err != nil {
		return nil, fmt.Errorf("spatial: %w", err)
	}

	b := &BinauralEffect{
		provider:  p,
		conv:      c,
		frame:     cfg.FrameSize,
		measured:  make([]earPair, p.NumDirections()),
		current:   earPair{c.NewEmptyFilter(), c.NewEmptyFilter()},
		next:      earPair{c.NewEmptyFilter(), c.NewEmptyFilter()},
		direction: geom.Vec(0, 0, -1),
		nbuf:      make([]hrtf.Neighbor, 0, hrtf.MaxNeighbors),
		srcs:      make([]*conv.Filter, 0, hrtf.MaxNeighbors),
		weights:   make([]float64, 0, hrtf.MaxNeighbors),
		silence:   make([]float64, cfg.FrameSize),
	}

	for i := range b.measured {
		h := p.HRIR(i)

		for ear, ir := range [2][]float64{h.Left, h.Right} {
			f, err := c.NewFilter(ir)
			if err != nil {
				return nil, fmt.Errorf("spatial: hrir %d: %w", i, err)
			}

			b.measured[i][ear] = f
		}
	}

	return b, nil
}

// Err returns the first processing error, or nil. A frame with mismatched
// buffers renders silence and records ErrFrameSize.
func (b *BinauralEffect) Err() error { return b.err }

// Direction returns the listener-local direction last rendered.
func (b *BinauralEffect) Direction() geom.Vector3 { return b.direction }

// Apply convolves channel 0 of in with the HRIR pair for params.Direction
// and writes left and right to channels 0 and 1 of out. in and out may
// share storage.
func (b *BinauralEffect) Apply(params BinauralEffectParams, in, out *buffer.Buffer) effects.State {
	if !b.fits(in, out) {
		return effects.StateTailComplete
	}

	dir := params.Direction
	if !geom.IsZero(dir) && geom.IsFinite(dir) {
		b.direction = geom.Normalize(dir)
	}

	sel := b.selectFor(params.Interpolation)

	b.record(b.conv.Push(in.Channel(0)))

	left, right := out.Channel(0), out.Channel(1)

	switch {
	case !b.started:
		b.fill(b.current, sel)
		b.sel = sel
		b.started = true

		b.convolve(left, right)
	case sel != b.sel:
		b.fill(b.next, sel)

		b.record(b.conv.ConvolveCrossfade(left, b.current[0], b.next[0]))
		b.record(b.conv.ConvolveCrossfade(right, b.current[1], b.next[1]))

		b.current, b.next = b.next, b.current
		b.sel = sel
	default:
		b.convolve(left, right)
	}

	b.tailLeft = b.TailSize()

	return effects.StateTailRemaining
}

// Tail renders the convolution tail of earlier input.
func (b *BinauralEffect) Tail(out *buffer.Buffer) effects.State {
	if !b.fits(nil, out) {
		return effects.StateTailComplete
	}

	if b.tailLeft == 0 {
		out.Zero()
		return effects.StateTailComplete
	}

	b.record(b.conv.Push(b.silence))
	b.convolve(out.Channel(0), out.Channel(1))

	b.tailLeft--
	if b.tailLeft > 0 {
		return effects.StateTailRemaining
	}

	return effects.StateTailComplete
}

// TailSize returns the number of frames an HRIR rings after the input
// stops.
func (b *BinauralEffect) TailSize() int {
	return b.conv.NumPartitions()
}

// Reset clears the input history and any recorded error, and forgets the
// last direction.
func (b *BinauralEffect) Reset() {
	b.conv.Reset()
	b.started = false
	b.tailLeft = 0
	b.sel = selection{}
	b.direction = geom.Vec(0, 0, -1)
	b.err = nil
}

// fits reports whether in (when given) and out hold one frame. Every filter
// comes from b.conv, so once the lengths fit the convolver calls below
// cannot fail; record only guards that invariant.
func (b *BinauralEffect) fits(in, out *buffer.Buffer) bool {
	ok := out.NumChannels() >= 2 && out.Len() == b.frame
	if in != nil {
		ok = ok && in.NumChannels() >= 1 && in.Len() == b.frame
	}

	if !ok {
		out.Zero()
		b.record(fmt.Errorf("%w: want %d samples", ErrFrameSize, b.frame))
	}

	return ok
}

func (b *BinauralEffect) record(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

func (b *BinauralEffect) convolve(left, right []float64) {
	b.record(b.conv.Convolve(left, b.current[0]))
	b.record(b.conv.Convolve(right, b.current[1]))
}

func (b *BinauralEffect) selectFor(mode Interpolation) selection {
	var sel selection

	nb := hrtf.Neighbors(b.provider, b.direction, mode.neighbors(), b.nbuf)
	sel.n = copy(sel.neighbors[:], nb)

	return sel
}

// fill blends the measured filters named by sel into dst.
func (b *BinauralEffect) fill(dst earPair, sel selection) {
	for ear := range dst {
		b.srcs = b.srcs[:0]
		b.weights = b.weights[:0]

		for _, n := range sel.neighbors[:sel.n] {
			b.srcs = append(b.srcs, b.measured[n.Index][ear])
			b.weights = append(b.weights, n.Weight)
		}

		b.record(dst[ear].SetWeighted(b.srcs, b.weights))
	}
}
