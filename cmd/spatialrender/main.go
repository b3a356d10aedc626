// Command spatialrender renders a mono sound file through the spatial audio
// engine into a stereo WAV file.
//
// Usage:
//
//	spatialrender [flags] input.(wav|mp3|ogg)
//
// The scene file places occluding geometry, the listener and a moving
// source. Without -scene the source sits two metres ahead in free field.
//
// Examples:
//
//	spatialrender -o out.wav voice.wav
//	spatialrender -scene room.yaml -wet 0.3 -gain -6 -o out.wav music.ogg
//	spatialrender -hrtf manifest -manifest kemar.yaml -o out.wav voice.mp3
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-vecmath"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/internal/audiofile"
	"github.com/cwbudde/algo-spatial/internal/config"
	"github.com/cwbudde/algo-spatial/internal/host"
	"github.com/cwbudde/algo-spatial/internal/logging"
	"github.com/cwbudde/algo-spatial/scene"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "spatialrender:", err)
		os.Exit(1)
	}
}

type options struct {
	scene    string
	output   string
	bits     int
	tail     float64
	interval float64
	gain     float64
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("spatialrender", flag.ContinueOnError)
	fs.SetOutput(stderr)

	shared := config.RegisterFlags(fs)

	var opts options
	fs.StringVar(&opts.scene, "scene", "", "Scene description (YAML)")
	fs.StringVar(&opts.output, "o", "out.wav", "Output WAV file")
	fs.IntVar(&opts.bits, "bits", 24, "Output bit depth (16, 24 or 32)")
	fs.Float64Var(&opts.tail, "tail", 2, "Seconds rendered after the input ends")
	fs.Float64Var(&opts.interval, "interval", 1.0/60, "Seconds between pose updates")
	fs.Float64Var(&opts.gain, "gain", 0, "Output gain in dB")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one input file")
	}

	cfg, err := shared.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging.LoggingOptions())
	defer func() { _ = log.Sync() }()

	clip, err := audiofile.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	// Without -rate the engine runs at the rate of the input.
	if shared.SampleRate > 0 {
		if clip, err = clip.Resample(int(shared.SampleRate)); err != nil {
			return err
		}
	}
	cfg.Audio.SampleRate = float64(clip.SampleRate)

	sf := &config.SceneFile{Source: config.PoseConfig{Position: [3]float64{0, 0, -2}}}
	if opts.scene != "" {
		if sf, err = config.LoadScene(opts.scene); err != nil {
			return err
		}
	}

	var geometry scene.Geometry
	if len(sf.Meshes) > 0 {
		sc, err := sf.Build(scene.NewArena())
		if err != nil {
			return err
		}
		geometry = sc
		log.Info("scene built", zap.Int("triangles", sc.Stats().Triangles), zap.Int("instances", sc.Stats().InstancedMeshes))
	}

	session, err := host.NewSession(cfg, geometry, log)
	if err != nil {
		return err
	}

	out, err := render(session, sf, clip.Mono(), cfg.Audio.SampleRate, opts)
	if err != nil {
		return err
	}

	peak := applyGain(out, core.DBToLinear(opts.gain))
	if peak > 1 {
		log.Warn("output clips", zap.Float64("peak_db", core.LinearToDB(peak)))
	}

	result := &audiofile.Clip{SampleRate: clip.SampleRate, Channels: out}
	if err := audiofile.WriteWAV(opts.output, result, opts.bits); err != nil {
		return err
	}

	log.Info("rendered",
		zap.String("output", opts.output),
		zap.Float64("seconds", result.Duration()),
		zap.Float64("peak_db", core.LinearToDB(peak)),
		zap.Uint64("deferred_updates", session.Controller.Deferred()),
	)

	return nil
}

// render runs the source through the session in host blocks, updating the
// poses every opts.interval seconds. The engine latency is removed from the
// result.
func render(s *host.Session, sf *config.SceneFile, in []float64, rate float64, opts options) ([][]float64, error) {
	latency := s.Voice.Latency()
	total := len(in) + int(opts.tail*rate)

	block := max(int(opts.interval*rate), 1)
	block = min(block, s.Voice.MaxHostBlock())

	listener := sf.Listener.CoordinateSpace()

	left := make([]float64, total+latency)
	right := make([]float64, total+latency)
	src := make([]float64, block)

	for pos := 0; pos < len(left); pos += block {
		n := min(block, len(left)-pos)

		clear(src)
		if pos < len(in) {
			copy(src, in[pos:])
		}

		s.Controller.Update(sf.SourceAt(float64(pos)/rate), listener)

		if err := s.Voice.Process(src[:n], left[pos:pos+n], right[pos:pos+n]); err != nil {
			return nil, err
		}
	}

	return [][]float64{left[latency:], right[latency:]}, nil
}

// applyGain scales every channel by g and returns the resulting peak.
func applyGain(channels [][]float64, g float64) float64 {
	peak := 0.0
	for _, ch := range channels {
		if g != 1 {
			vecmath.ScaleBlock(ch, ch, g)
		}
		peak = max(peak, core.PeakAbs(ch))
	}

	return peak
}
