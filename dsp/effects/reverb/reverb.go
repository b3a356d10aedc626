package reverb

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/delay"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
)

// Accepted reverb time range in seconds.
const (
	MinReverbTime = 0.1
	MaxReverbTime = 60.0
)

// t60Decay is ln(1000): the decay exponent for -60 dB.
const t60Decay = 6.91

const (
	inputGain  = 0.25
	outputGain = 0.25
)

// Reverb holds per-band (low, mid, high) reverb times in seconds.
type Reverb struct {
	ReverbTimes [effects.NumBands]float64
}

// Clamped returns r with every reverb time in [MinReverbTime,
// MaxReverbTime]. NaN becomes MinReverbTime.
func (r Reverb) Clamped() Reverb {
	for i, t := range r.ReverbTimes {
		if math.IsNaN(t) {
			t = MinReverbTime
		}

		r.ReverbTimes[i] = core.Clamp(t, MinReverbTime, MaxReverbTime)
	}

	return r
}

// MaxReverbTime returns the longest band reverb time.
func (r Reverb) MaxReverbTime() float64 {
	return max(r.ReverbTimes[0], r.ReverbTimes[1], r.ReverbTimes[2])
}

// ReverbEffectParams drive one frame of a ReverbEffect.
type ReverbEffectParams struct {
	Reverb Reverb
}

// ReverbEffect renders mono late reverberation with a feedback delay
// network. After the last Apply it keeps ringing out for TailSize frames.
type ReverbEffect struct {
	sampleRate float64
	frameSize  int
	subBlock   int

	delays [numDelays]int
	lines  [numDelays]*delay.Line

	absorptive [numDelays]*biquad.Chain
	tone       *biquad.Chain

	current  Reverb
	started  bool
	tailLeft int

	taps    [numDelays][]float64
	feed    [numDelays][]float64
	coeffs  []biquad.Coefficients
	silence []float64
}

// NewReverbEffect returns a reverb for mono frames of cfg.
func NewReverbEffect(cfg core.ProcessorConfig) (*ReverbEffect, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &ReverbEffect{
		sampleRate: cfg.SampleRate,
		frameSize:  cfg.FrameSize,
		delays:     delayLengths(cfg.SampleRate),
		coeffs:     make([]biquad.Coefficients, effects.NumBands),
		silence:    make([]float64, cfg.FrameSize),
	}

	r.subBlock = min(slices.Min(r.delays[:]), cfg.FrameSize)

	flat := design.ThreeBandEQ([effects.NumBands]float64{1, 1, 1}, cfg.SampleRate)

	for i, d := range r.delays {
		line, err := delay.New(d)
		if err != nil {
			return nil, fmt.Errorf("reverb: line %d: %w", i, err)
		}

		r.lines[i] = line
		r.absorptive[i] = biquad.NewChain(flat[:])
		r.taps[i] = make([]float64, r.subBlock)
		r.feed[i] = make([]float64, r.subBlock)
	}

	r.tone = biquad.NewChain(flat[:])

	return r, nil
}

// Delays returns the delay line lengths in samples.
func (r *ReverbEffect) Delays() [numDelays]int { return r.delays }

// Apply injects channel 0 of in and writes the reverberant signal to
// channel 0 of out. in and out may be the same buffer.
func (r *ReverbEffect) Apply(params ReverbEffectParams, in, out *buffer.Buffer) effects.State {
	rv := params.Reverb.Clamped()
	if !r.started || rv != r.current {
		r.setReverb(rv)
	}

	r.tailLeft = r.TailSize()
	r.step(in.Channel(0), out.Channel(0))

	return effects.StateTailRemaining
}

// Tail writes the next frame of ring-out with no new input, using the last
// applied parameters.
func (r *ReverbEffect) Tail(out *buffer.Buffer) effects.State {
	if r.tailLeft == 0 {
		out.Zero()
		return effects.StateTailComplete
	}

	r.step(nil, out.Channel(0))

	r.tailLeft--
	if r.tailLeft > 0 {
		return effects.StateTailRemaining
	}

	r.clearHistory()

	return effects.StateTailComplete
}

// TailSize returns the ring-out length in frames for the current reverb
// times: twice the longest reverb time.
func (r *ReverbEffect) TailSize() int {
	if !r.started {
		return 0
	}

	return int(math.Ceil(2 * r.current.MaxReverbTime() * r.sampleRate / float64(r.frameSize)))
}

// Reset clears all history.
func (r *ReverbEffect) Reset() {
	r.clearHistory()
	r.started = false
	r.tailLeft = 0
}

func (r *ReverbEffect) clearHistory() {
	for i := range r.lines {
		r.lines[i].Reset()
		r.absorptive[i].Reset()
	}

	r.tone.Reset()
}

// setReverb retunes the absorption and tone filters. Filter history is
// kept so a change does not click.
func (r *ReverbEffect) setReverb(rv Reverb) {
	r.current = rv
	r.started = true

	for i, d := range r.delays {
		var gains [effects.NumBands]float64
		for b, t := range rv.ReverbTimes {
			gains[b] = math.Exp(-t60Decay * float64(d) / (t * r.sampleRate))
		}

		r.setChain(r.absorptive[i], gains)
	}

	var tone [effects.NumBands]float64
	for b, t := range rv.ReverbTimes {
		tone[b] = 1 / math.Sqrt(t)
	}

	peak := max(tone[0], tone[1], tone[2])
	for b := range tone {
		tone[b] /= peak
	}

	r.setChain(r.tone, tone)
}

func (r *ReverbEffect) setChain(c *biquad.Chain, gains [effects.NumBands]float64) {
	bands := design.ThreeBandEQ(gains, r.sampleRate)
	copy(r.coeffs, bands[:])
	c.SetCoefficients(r.coeffs)
}

// step runs one frame through the network. A nil in injects silence; the
// active and ring-out paths share this code.
func (r *ReverbEffect) step(in, out []float64) {
	if in == nil {
		in = r.silence
	}

	for start := 0; start < len(out); start += r.subBlock {
		end := min(start+r.subBlock, len(out))
		r.stepBlock(in[start:end], out[start:end])
	}

	r.tone.ProcessBlock(out)
}

// stepBlock processes at most subBlock samples, which never exceeds the
// shortest line, so every sample read here was written before this block.
func (r *ReverbEffect) stepBlock(in, out []float64) {
	n := len(in)

	for i, line := range r.lines {
		tap := r.taps[i][:n]
		line.ReadBlock(tap, r.delays[i])
		r.absorptive[i].ProcessBlock(tap)
	}

	var v [numDelays]float64
	for j := range n {
		for i := range v {
			v[i] = r.taps[i][j]
		}

		hadamard16(&v)

		x := inputGain * in[j]
		for i := range v {
			r.feed[i][j] = core.FlushDenormals(v[i] + x)
		}
	}

	clear(out)

	for i, line := range r.lines {
		line.WriteBlock(r.feed[i][:n])
		vecmath.AddBlockInPlace(out, r.taps[i][:n])
	}

	vecmath.ScaleBlock(out, out, outputGain)
}
