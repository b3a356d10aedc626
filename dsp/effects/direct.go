package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/delay"
	"github.com/cwbudde/algo-spatial/simulate"
)

// DirectApplyFlags selects which terms of a direct sound path are applied.
type DirectApplyFlags uint32

const (
	ApplyDistanceAttenuation DirectApplyFlags = 1 << iota
	ApplyAirAbsorption
	ApplyDirectivity
	ApplyOcclusion
	ApplyTransmission
	ApplyDelay
)

// Has reports whether every bit of f2 is set in f.
func (f DirectApplyFlags) Has(f2 DirectApplyFlags) bool {
	return f&f2 == f2
}

func (f DirectApplyFlags) String() string {
	names := []string{"distance", "air", "directivity", "occlusion", "transmission", "delay"}

	var parts []string
	for i, n := range names {
		if f.Has(1 << i) {
			parts = append(parts, n)
		}
	}

	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, "|")
}

// ApplyFlagsFor returns the apply flags matching the simulated terms.
func ApplyFlagsFor(sim simulate.DirectSimulationFlags) DirectApplyFlags {
	var f DirectApplyFlags

	pairs := []struct {
		sim   simulate.DirectSimulationFlags
		apply DirectApplyFlags
	}{
		{simulate.SimulateDistanceAttenuation, ApplyDistanceAttenuation},
		{simulate.SimulateAirAbsorption, ApplyAirAbsorption},
		{simulate.SimulateDirectivity, ApplyDirectivity},
		{simulate.SimulateOcclusion, ApplyOcclusion},
		{simulate.SimulateTransmission, ApplyTransmission},
		{simulate.SimulateDelay, ApplyDelay},
	}
	for _, p := range pairs {
		if sim.Has(p.sim) {
			f |= p.apply
		}
	}

	return f
}

// TransmissionType selects how transmission combines with occlusion.
type TransmissionType int

const (
	// TransmissionFrequencyIndependent folds the band average of the
	// transmission coefficients into the overall gain.
	TransmissionFrequencyIndependent TransmissionType = iota
	// TransmissionFrequencyDependent applies transmission per EQ band.
	TransmissionFrequencyDependent
)

func (t TransmissionType) String() string {
	if t == TransmissionFrequencyDependent {
		return "frequency-dependent"
	}

	return "frequency-independent"
}

// DirectEffectParams drive one frame of a DirectEffect.
type DirectEffectParams struct {
	Path             simulate.DirectSoundPath
	Flags            DirectApplyFlags
	TransmissionType TransmissionType
}

// CalculateGainAndEQ reduces a direct sound path to an overall gain and
// per-band EQ gains. Distance attenuation, directivity and frequency
// independent occlusion terms go to the gain; air absorption and frequency
// dependent transmission go to the EQ.
func CalculateGainAndEQ(p DirectEffectParams) (gain float64, eq [NumBands]float64) {
	gain = 1
	eq = [NumBands]float64{1, 1, 1}
	path := p.Path

	if p.Flags.Has(ApplyDistanceAttenuation) {
		gain *= path.DistanceAttenuation
	}

	if p.Flags.Has(ApplyAirAbsorption) {
		for i := range eq {
			eq[i] *= path.AirAbsorption[i]
		}
	}

	if p.Flags.Has(ApplyDirectivity) {
		gain *= path.Directivity
	}

	switch {
	case p.Flags.Has(ApplyOcclusion | ApplyTransmission):
		occ := path.Occlusion
		if p.TransmissionType == TransmissionFrequencyDependent {
			for i := range eq {
				eq[i] *= occ + (1-occ)*path.Transmission[i]
			}
		} else {
			avg := (path.Transmission[0] + path.Transmission[1] + path.Transmission[2]) / NumBands
			gain *= occ + (1-occ)*avg
		}
	case p.Flags.Has(ApplyOcclusion):
		gain *= path.Occlusion
	}

	return gain, eq
}

// needsEQ reports whether the flags route anything through the EQ.
func needsEQ(p DirectEffectParams) bool {
	return p.Flags.Has(ApplyAirAbsorption) ||
		(p.Flags.Has(ApplyOcclusion|ApplyTransmission) && p.TransmissionType == TransmissionFrequencyDependent)
}

// DefaultMaxDelay is the longest propagation delay a DirectEffect renders,
// in seconds.
const DefaultMaxDelay = 1.0

// DirectEffectOption configures a DirectEffect.
type DirectEffectOption func(*directConfig) error

type directConfig struct {
	maxDelay float64
}

// WithMaxDelay sets the longest propagation delay rendered with ApplyDelay.
// Longer delays are clamped.
func WithMaxDelay(seconds float64) DirectEffectOption {
	return func(cfg *directConfig) error {
		if !(seconds > 0) || math.IsInf(seconds, 0) {
			return fmt.Errorf("effects: max delay must be > 0 and finite: %f", seconds)
		}
		cfg.maxDelay = seconds
		return nil
	}
}

// DirectEffect renders the direct sound path of a mono source: a smoothed
// gain, an EQ when band dependent terms are enabled, and optionally the
// propagation delay.
type DirectEffect struct {
	sampleRate float64

	gain *GainEffect
	eq   *EqEffect

	eqActive bool

	line       *delay.Line
	delayOn    bool
	prevDelay  float64
	maxSamples float64

	frameSize int
	last      DirectEffectParams
	tailLeft  int
	silence   *buffer.Buffer
}

// NewDirectEffect returns a direct effect for mono frames of cfg.
func NewDirectEffect(cfg core.ProcessorConfig, opts ...DirectEffectOption) (*DirectEffect, error) {
	dc := directConfig{maxDelay: DefaultMaxDelay}
	for _, opt := range opts {
		if err := opt(&dc); err != nil {
			return nil, err
		}
	}

	eq, err := NewEqEffect(cfg)
	if err != nil {
		return nil, err
	}

	maxSamples := math.Ceil(dc.maxDelay * cfg.SampleRate)

	line, err := delay.New(int(maxSamples) + 4)
	if err != nil {
		return nil, fmt.Errorf("effects: direct delay line: %w", err)
	}

	return &DirectEffect{
		sampleRate: cfg.SampleRate,
		gain:       NewGainEffect(),
		eq:         eq,
		line:       line,
		maxSamples: maxSamples,
		frameSize:  cfg.FrameSize,
		silence:    buffer.New(1, cfg.FrameSize),
	}, nil
}

// Apply renders channel 0 of in into channel 0 of out. in and out may be
// the same buffer.
func (d *DirectEffect) Apply(params DirectEffectParams, in, out *buffer.Buffer) State {
	gain, eqGains := CalculateGainAndEQ(params)

	src := in
	if params.Flags.Has(ApplyDelay) {
		d.applyDelay(params.Path.Delay, in.Channel(0), out.Channel(0))
		src = out
	} else if d.delayOn {
		d.delayOn = false
		d.line.Reset()
	}

	if needsEQ(params) {
		if !d.eqActive {
			d.eqActive = true
			d.eq.Reset()
		}

		bands, overall := NormalizeEqGains(eqGains)
		d.eq.Apply(EqEffectParams{Gains: bands}, src, out)
		d.gain.Apply(gain*overall, out, out)
	} else {
		d.eqActive = false
		d.gain.Apply(gain, src, out)
	}

	d.last = params
	d.tailLeft = 0

	if d.delayOn {
		d.tailLeft = int(math.Ceil(d.prevDelay / float64(d.frameSize)))
	}

	if d.tailLeft > 0 {
		return StateTailRemaining
	}

	return StateTailComplete
}

// applyDelay writes src into the delay line and reads it back with the
// delay ramping from the previous frame's value to seconds.
func (d *DirectEffect) applyDelay(seconds float64, src, dst []float64) {
	target := min(max(seconds*d.sampleRate, 0), d.maxSamples)

	if !d.delayOn {
		d.delayOn = true
		d.prevDelay = target
	}

	step := (target - d.prevDelay) / float64(len(src))
	for i, x := range src {
		d.line.Write(x)
		dst[i] = d.line.ReadFractional(d.prevDelay + step*float64(i+1))
	}

	d.prevDelay = target
}

// Tail flushes the samples still travelling through the propagation delay,
// using the last applied parameters.
func (d *DirectEffect) Tail(out *buffer.Buffer) State {
	if d.tailLeft == 0 {
		out.Zero()
		return StateTailComplete
	}

	left := d.tailLeft - 1
	d.Apply(d.last, d.silence, out)
	d.tailLeft = left

	if left > 0 {
		return StateTailRemaining
	}

	return StateTailComplete
}

// TailSize returns the number of frames needed to flush the longest
// renderable delay.
func (d *DirectEffect) TailSize() int {
	return int(math.Ceil(d.maxSamples / float64(d.frameSize)))
}

// Reset clears gain, EQ and delay history.
func (d *DirectEffect) Reset() {
	d.gain.Reset()
	d.eq.Reset()
	d.line.Reset()
	d.eqActive = false
	d.delayOn = false
	d.prevDelay = 0
	d.tailLeft = 0
}
