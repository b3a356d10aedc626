// Command spatialplay plays a sound file through the spatial audio engine
// in real time.
//
// Usage:
//
//	spatialplay [flags] input.(wav|mp3|ogg)
//
// The input loops. Without -scene the source circles the listener;
// with a scene it follows the scene path, restarting at its end.
//
// Examples:
//
//	spatialplay voice.wav
//	spatialplay -radius 3 -period 4 music.ogg
//	spatialplay -scene room.yaml -duration 30s voice.mp3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/internal/audiofile"
	"github.com/cwbudde/algo-spatial/internal/config"
	"github.com/cwbudde/algo-spatial/internal/host"
	"github.com/cwbudde/algo-spatial/internal/logging"
	"github.com/cwbudde/algo-spatial/scene"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "spatialplay:", err)
		os.Exit(1)
	}
}

type options struct {
	scene    string
	radius   float64
	period   float64
	duration time.Duration
	rate     time.Duration
	buffer   time.Duration
}

func run(args []string) error {
	fs := flag.NewFlagSet("spatialplay", flag.ContinueOnError)
	shared := config.RegisterFlags(fs)

	var opts options
	fs.StringVar(&opts.scene, "scene", "", "Scene description (YAML)")
	fs.Float64Var(&opts.radius, "radius", 2, "Orbit radius in metres without a scene")
	fs.Float64Var(&opts.period, "period", 8, "Orbit period in seconds without a scene")
	fs.DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 plays until interrupted)")
	fs.DurationVar(&opts.rate, "update", time.Second/60, "Pose update interval")
	fs.DurationVar(&opts.buffer, "buffer", 40*time.Millisecond, "Output buffer length")

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

	poses, geometry, err := loadMotion(opts)
	if err != nil {
		return err
	}

	session, err := host.NewSession(cfg, geometry, log)
	if err != nil {
		return err
	}

	src := newStream(session.Voice, clip.Mono())

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   clip.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.buffer,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(src)
	defer player.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, opts.duration)
		defer cancel()
	}

	log.Info("playing", zap.String("input", fs.Arg(0)), zap.Float64("seconds", clip.Duration()))

	listener := poses.listener
	session.Controller.Update(poses.at(0), listener)
	player.Play()

	return control(runCtx, session, src, player, poses, opts.rate, log)
}

// control updates the source pose until ctx ends, reporting stream
// errors as they arrive.
func control(ctx context.Context, s *host.Session, src *stream, player *oto.Player, m motion, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped", zap.Uint64("deferred_updates", s.Controller.Deferred()))
			return nil
		case err := <-src.Errors():
			log.Error("processing failed", zap.Error(err))
		case <-ticker.C:
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio device: %w", err)
			}
			s.Controller.Update(m.at(time.Since(start).Seconds()), m.listener)
		}
	}
}

// motion yields the source pose over time.
type motion struct {
	listener geom.CoordinateSpace
	at       func(t float64) geom.CoordinateSpace
}

func loadMotion(opts options) (motion, scene.Geometry, error) {
	if opts.scene == "" {
		return orbit(opts.radius, opts.period), nil, nil
	}

	sf, err := config.LoadScene(opts.scene)
	if err != nil {
		return motion{}, nil, err
	}

	m := motion{
		listener: sf.Listener.CoordinateSpace(),
		at: func(t float64) geom.CoordinateSpace {
			if d := sf.Duration(); d > 0 {
				t = math.Mod(t, d)
			}
			return sf.SourceAt(t)
		},
	}

	if len(sf.Meshes) == 0 {
		return m, nil, nil
	}

	sc, err := sf.Build(scene.NewArena())
	if err != nil {
		return motion{}, nil, err
	}

	return m, sc, nil
}

// orbit circles the default listener in the horizontal plane, starting
// straight ahead and moving to the left first.
func orbit(radius, period float64) motion {
	if !(period > 0) {
		period = 8
	}

	return motion{
		listener: geom.DefaultCoordinateSpace(),
		at: func(t float64) geom.CoordinateSpace {
			phi := 2 * math.Pi * t / period
			pos := geom.Vec(-radius*math.Sin(phi), 0, -radius*math.Cos(phi))
			return geom.NewCoordinateSpaceFromVector(geom.Scale(pos, -1), pos)
		},
	}
}
