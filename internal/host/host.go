// Package host assembles a voice and its controller from the host
// configuration. It is shared by the command-line programs.
package host

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-spatial/engine"
	"github.com/cwbudde/algo-spatial/internal/config"
	"github.com/cwbudde/algo-spatial/scene"
	"github.com/cwbudde/algo-spatial/simulate"
)

// Session is one rendered source.
type Session struct {
	Voice      *engine.Voice
	Controller *engine.Controller
}

// NewSession validates cfg and builds the voice and controller. g may be
// nil for free-field rendering.
func NewSession(cfg *config.Config, g scene.Geometry, log *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	pc := cfg.Processor()

	provider, err := cfg.HRTF.Provider(pc.SampleRate)
	if err != nil {
		return nil, err
	}

	opts := []engine.VoiceOption{
		engine.WithMaxHostBlock(cfg.Audio.MaxHostBlock),
		engine.WithInitialMix(engine.MixParameters{Dry: cfg.Audio.Dry, Wet: cfg.Audio.Wet}),
		engine.WithInitialReverb(cfg.Reverb.Reverb()),
	}
	if cfg.Audio.MaxDelay > 0 {
		opts = append(opts, engine.WithMaxDelay(cfg.Audio.MaxDelay))
	}
	if provider != nil {
		opts = append(opts, engine.WithHRTF(provider))
	}

	voice, err := engine.NewVoice(pc, opts...)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	flags, _ := cfg.Simulation.SimulationFlags()
	inputs, _ := cfg.Simulation.DirectInputs()
	transmission, _ := cfg.Simulation.TransmissionType()
	interp, _ := cfg.Simulation.InterpolationMode()

	sim, err := simulate.NewDirectSimulator(max(cfg.Simulation.MaxOcclusionSamples, 1))
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	ctrl, err := engine.NewController(voice,
		engine.WithLogger(log),
		engine.WithGeometry(g),
		engine.WithSimulator(sim),
		engine.WithSimulationFlags(flags),
		engine.WithDirectInputs(inputs),
		engine.WithTransmissionType(transmission),
		engine.WithInterpolation(interp),
	)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	log.Info("session ready",
		zap.Float64("sample_rate", pc.SampleRate),
		zap.Int("frame_size", pc.FrameSize),
		zap.Bool("binaural", voice.Binaural()),
		zap.Stringer("simulation", flags),
		zap.Int("latency", voice.Latency()),
	)

	return &Session{Voice: voice, Controller: ctrl}, nil
}
