package effects

import (
	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
)

// NumBands is the number of EQ bands.
const NumBands = 3

// Band gain limits used by NormalizeEqGains.
const (
	MinEqGain       = 0.0625 // -24 dB
	minMaxEqGain    = 1e-7
	defaultEqSilent = 0.0
)

// EqEffectParams are linear per-band gains for the low, mid and high band.
type EqEffectParams struct {
	Gains [NumBands]float64
}

// NormalizeEqGains rescales gains so the loudest band is 1 and floors the
// others at MinEqGain. The removed level is returned as an overall gain.
// When every band is near zero the EQ collapses to unity with overall gain
// 0.
func NormalizeEqGains(gains [NumBands]float64) (eq [NumBands]float64, overall float64) {
	peak := max(gains[0], gains[1], gains[2])
	if !(peak > minMaxEqGain) {
		return [NumBands]float64{1, 1, 1}, defaultEqSilent
	}

	for i, g := range gains {
		eq[i] = max(g/peak, MinEqGain)
	}

	return eq, peak
}

// EqEffect is a mono three-band EQ. When its gains change it runs the old
// and the new filter bank over the same frame, the new one seeded with the
// old one's history, and crossfades between them.
type EqEffect struct {
	sampleRate float64

	// stable is the bank in use between frames. pending is set only while
	// a frame is being crossfaded to new gains and becomes stable when the
	// frame completes.
	stable  *biquad.Chain
	pending *biquad.Chain
	spare   *biquad.Chain

	gains   [NumBands]float64
	started bool

	coeffs  []biquad.Coefficients
	scratch []float64
}

// NewEqEffect returns an EQ with flat gains for cfg.
func NewEqEffect(cfg core.ProcessorConfig) (*EqEffect, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flat := design.ThreeBandEQ([NumBands]float64{1, 1, 1}, cfg.SampleRate)

	return &EqEffect{
		sampleRate: cfg.SampleRate,
		stable:     biquad.NewChain(flat[:]),
		spare:      biquad.NewChain(flat[:]),
		gains:      [NumBands]float64{1, 1, 1},
		coeffs:     make([]biquad.Coefficients, NumBands),
		scratch:    make([]float64, cfg.FrameSize),
	}, nil
}

// Gains returns the gains of the stable bank.
func (e *EqEffect) Gains() [NumBands]float64 { return e.gains }

// Apply filters channel 0 of in into channel 0 of out. in and out may be
// the same buffer.
func (e *EqEffect) Apply(params EqEffectParams, in, out *buffer.Buffer) State {
	src := in.Channel(0)
	dst := out.Channel(0)

	if !e.started {
		e.started = true
		e.setBank(e.stable, params.Gains)
		e.gains = params.Gains
		e.stable.ProcessBlockTo(dst, src)

		return StateTailComplete
	}

	if params.Gains == e.gains {
		e.stable.ProcessBlockTo(dst, src)
		return StateTailComplete
	}

	e.pending = e.spare
	e.setBank(e.pending, params.Gains)
	e.pending.CopyStateFrom(e.stable)

	old := e.scratch[:len(src)]
	e.stable.ProcessBlockTo(old, src)
	e.pending.ProcessBlockTo(dst, src)

	n := float64(len(dst))
	for i := range dst {
		w := float64(i+1) / n
		dst[i] = old[i] + w*(dst[i]-old[i])
	}

	e.spare, e.stable, e.pending = e.stable, e.pending, nil
	e.gains = params.Gains

	return StateTailComplete
}

// Tail clears out. The filters' ring-out is below audibility within a frame.
func (e *EqEffect) Tail(out *buffer.Buffer) State {
	out.Zero()
	return StateTailComplete
}

// TailSize returns 0.
func (e *EqEffect) TailSize() int { return 0 }

// Reset clears filter history; the next frame applies its gains directly.
func (e *EqEffect) Reset() {
	e.stable.Reset()
	e.spare.Reset()
	e.pending = nil
	e.started = false
}

func (e *EqEffect) setBank(c *biquad.Chain, gains [NumBands]float64) {
	bands := design.ThreeBandEQ(gains, e.sampleRate)
	copy(e.coeffs, bands[:])
	c.SetCoefficients(e.coeffs)
}
