package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/effects/reverb"
	"github.com/cwbudde/algo-spatial/dsp/effects/spatial"
	"github.com/cwbudde/algo-spatial/dsp/framing"
	"github.com/cwbudde/algo-spatial/dsp/hrtf"
	"github.com/cwbudde/algo-spatial/dsp/paramchan"
	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/simulate"
)

// MixParameters are the linear gains of the direct (dry) and reverberant
// (wet) paths.
type MixParameters struct {
	Dry float64
	Wet float64
}

// DefaultMix is the direct path only.
func DefaultMix() MixParameters { return MixParameters{Dry: 1} }

// Clamped returns m with negative or NaN gains set to 0.
func (m MixParameters) Clamped() MixParameters {
	clamp := func(g float64) float64 {
		if !(g > 0) || math.IsInf(g, 1) {
			return 0
		}
		return g
	}

	return MixParameters{Dry: clamp(m.Dry), Wet: clamp(m.Wet)}
}

// Voice defaults.
const (
	DefaultMaxHostBlock    = 4096
	DefaultChannelCapacity = 8
)

// VoiceOption configures NewVoice.
type VoiceOption func(*voiceConfig) error

type voiceConfig struct {
	provider     hrtf.Provider
	maxHostBlock int
	capacity     int
	maxDelay     float64
	mix          MixParameters
	reverb       reverb.Reverb
}

// WithHRTF renders the direct path binaurally with p. Without it the
// direct path is duplicated to both output channels.
func WithHRTF(p hrtf.Provider) VoiceOption {
	return func(c *voiceConfig) error {
		if p == nil {
			return fmt.Errorf("engine: hrtf provider must not be nil")
		}
		c.provider = p
		return nil
	}
}

// WithMaxHostBlock sets the longest host block Process accepts.
func WithMaxHostBlock(n int) VoiceOption {
	return func(c *voiceConfig) error {
		if n < 1 {
			return fmt.Errorf("engine: max host block must be >= 1: %d", n)
		}
		c.maxHostBlock = n
		return nil
	}
}

// WithChannelCapacity sets how many parameter updates may queue per
// parameter type before further updates are held back.
func WithChannelCapacity(n int) VoiceOption {
	return func(c *voiceConfig) error {
		if n < 1 {
			return fmt.Errorf("engine: channel capacity must be >= 1: %d", n)
		}
		c.capacity = n
		return nil
	}
}

// WithMaxDelay sets the longest propagation delay the direct path renders,
// in seconds.
func WithMaxDelay(seconds float64) VoiceOption {
	return func(c *voiceConfig) error {
		if !(seconds > 0) || math.IsInf(seconds, 0) {
			return fmt.Errorf("engine: max delay must be > 0 and finite: %v", seconds)
		}
		c.maxDelay = seconds
		return nil
	}
}

// WithInitialMix sets the mix used until the first SetMix.
func WithInitialMix(m MixParameters) VoiceOption {
	return func(c *voiceConfig) error {
		c.mix = m.Clamped()
		return nil
	}
}

// WithInitialReverb sets the reverb times used until the first SetReverb.
func WithInitialReverb(r reverb.Reverb) VoiceOption {
	return func(c *voiceConfig) error {
		c.reverb = r.Clamped()
		return nil
	}
}

// Voice renders one mono source to stereo. Set* methods belong to a single
// control goroutine; Process and ProcessInterleaved to a single audio
// goroutine, where they never lock or allocate.
type Voice struct {
	cfg core.ProcessorConfig

	direct   *effects.DirectEffect
	binaural *spatial.BinauralEffect
	reverb   *reverb.ReverbEffect
	dryGain  *effects.GainEffect
	wetGain  *effects.GainEffect
	adapter  *framing.Adapter

	directCh   *paramchan.Channel[effects.DirectEffectParams]
	binauralCh *paramchan.Channel[spatial.BinauralEffectParams]
	reverbCh   *paramchan.Channel[reverb.ReverbEffectParams]
	mixCh      *paramchan.Channel[MixParameters]

	directParams   effects.DirectEffectParams
	binauralParams spatial.BinauralEffectParams
	reverbParams   reverb.ReverbEffectParams
	mix            MixParameters

	directState   effects.State
	binauralState effects.State
	reverbState   effects.State
	prevSilent    bool

	dry    *buffer.Buffer
	wet    *buffer.Buffer
	stereo *buffer.Buffer

	hostIn  [1][]float64
	hostOut [2][]float64
}

// NewVoice builds the effect chain for frames of cfg.
func NewVoice(cfg core.ProcessorConfig, opts ...VoiceOption) (*Voice, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vc := voiceConfig{
		maxHostBlock: DefaultMaxHostBlock,
		capacity:     DefaultChannelCapacity,
		maxDelay:     effects.DefaultMaxDelay,
		mix:          DefaultMix(),
		reverb:       reverb.Reverb{ReverbTimes: [effects.NumBands]float64{1, 1, 1}},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&vc); err != nil {
			return nil, err
		}
	}

	v := &Voice{
		cfg: cfg,
		directParams: effects.DirectEffectParams{
			Path: simulate.IdentityPath(),
		},
		binauralParams: spatial.BinauralEffectParams{Direction: geom.Vec(0, 0, -1)},
		reverbParams:   reverb.ReverbEffectParams{Reverb: vc.reverb},
		mix:            vc.mix,
		directState:    effects.StateTailComplete,
		binauralState:  effects.StateTailComplete,
		reverbState:    effects.StateTailComplete,
		prevSilent:     true,
		dryGain:        effects.NewGainEffect(),
		wetGain:        effects.NewGainEffect(),
		dry:            buffer.New(1, cfg.FrameSize),
		wet:            buffer.New(1, cfg.FrameSize),
		stereo:         buffer.New(2, cfg.FrameSize),
	}

	var err error

	if v.direct, err = effects.NewDirectEffect(cfg, effects.WithMaxDelay(vc.maxDelay)); err != nil {
		return nil, fmt.Errorf("engine: direct effect: %w", err)
	}

	if vc.provider != nil {
		if v.binaural, err = spatial.NewBinauralEffect(cfg, vc.provider); err != nil {
			return nil, fmt.Errorf("engine: binaural effect: %w", err)
		}
	}

	if v.reverb, err = reverb.NewReverbEffect(cfg); err != nil {
		return nil, fmt.Errorf("engine: reverb effect: %w", err)
	}

	if v.adapter, err = framing.New(cfg, 1, 2, vc.maxHostBlock, v.processFrame); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if v.directCh, err = paramchan.New[effects.DirectEffectParams](vc.capacity); err != nil {
		return nil, err
	}

	if v.binauralCh, err = paramchan.New[spatial.BinauralEffectParams](vc.capacity); err != nil {
		return nil, err
	}

	if v.reverbCh, err = paramchan.New[reverb.ReverbEffectParams](vc.capacity); err != nil {
		return nil, err
	}

	if v.mixCh, err = paramchan.New[MixParameters](vc.capacity); err != nil {
		return nil, err
	}

	return v, nil
}

// Config returns the processing configuration.
func (v *Voice) Config() core.ProcessorConfig { return v.cfg }

// Binaural reports whether the voice renders through an HRTF.
func (v *Voice) Binaural() bool { return v.binaural != nil }

// MaxHostBlock returns the longest host block Process accepts.
func (v *Voice) MaxHostBlock() int { return v.adapter.MaxHostBlock() }

// Latency returns the output delay added by frame buffering, in samples.
func (v *Voice) Latency() int { return v.adapter.Latency() }

// SetDirect queues direct-path parameters. It returns false when the queue
// is full; the update is then held back until a later flush or setter call.
func (v *Voice) SetDirect(p effects.DirectEffectParams) bool { return v.directCh.TrySend(p) }

// SetBinaural queues a new source direction.
func (v *Voice) SetBinaural(p spatial.BinauralEffectParams) bool { return v.binauralCh.TrySend(p) }

// SetReverb queues reverb times.
func (v *Voice) SetReverb(p reverb.ReverbEffectParams) bool { return v.reverbCh.TrySend(p) }

// SetMix queues dry and wet gains.
func (v *Voice) SetMix(m MixParameters) bool { return v.mixCh.TrySend(m.Clamped()) }

// flush retries held-back updates of every kind. It runs on the control
// side and reports whether nothing is held back any more.
func (v *Voice) flush() bool {
	ok := v.directCh.Flush()
	ok = v.binauralCh.Flush() && ok
	ok = v.reverbCh.Flush() && ok
	return v.mixCh.Flush() && ok
}

// Process renders one host block of mono input into left and right. All
// three slices must have the same length, at most the configured maximum
// host block.
func (v *Voice) Process(in, left, right []float64) error {
	v.drain()

	v.hostIn[0] = in
	v.hostOut[0], v.hostOut[1] = left, right

	if err := v.adapter.Process(v.hostIn[:], v.hostOut[:]); err != nil {
		return err
	}

	return v.err()
}

// ProcessInterleaved renders mono float32 input into interleaved stereo
// float32 output. A nil in renders silence through the tails.
func (v *Voice) ProcessInterleaved(in, out []float32) error {
	v.drain()

	if err := v.adapter.ProcessInterleaved(in, out); err != nil {
		return err
	}

	return v.err()
}

// err reports a failure inside the effect chain.
func (v *Voice) err() error {
	if v.binaural != nil {
		return v.binaural.Err()
	}

	return nil
}

// Reset clears all effect history and queued output. It must not run
// concurrently with Process.
func (v *Voice) Reset() {
	v.direct.Reset()
	if v.binaural != nil {
		v.binaural.Reset()
	}
	v.reverb.Reset()
	v.dryGain.Reset()
	v.wetGain.Reset()
	v.adapter.Reset()

	v.directState = effects.StateTailComplete
	v.binauralState = effects.StateTailComplete
	v.reverbState = effects.StateTailComplete
	v.prevSilent = true
}

// drain picks up the newest pending value of every parameter channel.
func (v *Voice) drain() {
	if p, ok := v.directCh.Drain(); ok {
		v.directParams = p
	}

	if p, ok := v.binauralCh.Drain(); ok {
		v.binauralParams = p
	}

	if p, ok := v.reverbCh.Drain(); ok {
		v.reverbParams = p
	}

	if m, ok := v.mixCh.Drain(); ok {
		v.mix = m
	}
}

func (v *Voice) idle() bool {
	return v.directState == effects.StateTailComplete &&
		v.binauralState == effects.StateTailComplete &&
		v.reverbState == effects.StateTailComplete
}

func (v *Voice) reverbActive() bool {
	return v.mix.Wet > 0 || v.wetGain.Gain() > 0 || v.reverbState == effects.StateTailRemaining
}

// processFrame runs the chain on one frame: direct path, then binaural (or
// a mono copy) scaled by the dry gain, plus the reverb of the direct path
// scaled by the wet gain.
func (v *Voice) processFrame(in, out *buffer.Buffer) {
	inSilent := in.IsSilent()
	if effects.CanBypass(v.prevSilent, in, v.stateSummary()) {
		out.Zero()
		return
	}

	v.directState = stage(v.direct, v.directParams, in, v.dry, inSilent)
	drySilent := v.dry.IsSilent()

	if v.binaural != nil {
		v.binauralState = stage(v.binaural, v.binauralParams, v.dry, v.stereo, drySilent)
	} else {
		v.stereo.CopyFrom(v.dry)
		copy(v.stereo.Channel(1), v.dry.Channel(0))
	}

	v.dryGain.Apply(v.mix.Dry, v.stereo, out)

	if v.reverbActive() {
		v.reverbState = stage(v.reverb, v.reverbParams, v.dry, v.wet, drySilent)
		v.wetGain.Apply(v.mix.Wet, v.wet, v.wet)

		wet := v.wet.Channel(0)
		vecmath.AddBlockInPlace(out.Channel(0), wet)
		vecmath.AddBlockInPlace(out.Channel(1), wet)
	}

	v.prevSilent = out.IsSilent()
}

func (v *Voice) stateSummary() effects.State {
	if v.idle() {
		return effects.StateTailComplete
	}

	return effects.StateTailRemaining
}

// stage applies e to in, or lets it ring out when in is silent.
func stage[P any](e effects.Applier[P], params P, in, out *buffer.Buffer, inSilent bool) effects.State {
	if inSilent {
		return e.Tail(out)
	}

	return e.Apply(params, in, out)
}
