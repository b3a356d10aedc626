package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/engine"
	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func newTestVoice(t *testing.T) *engine.Voice {
	t.Helper()

	v, err := engine.NewVoice(core.ApplyProcessorOptions(core.WithSampleRate(48000), core.WithFrameSize(32)),
		engine.WithMaxHostBlock(64))
	if err != nil {
		t.Fatalf("NewVoice() error = %v", err)
	}

	return v
}

func decodeFloats(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
	}

	return out
}

func TestStreamLoopsClipThroughVoice(t *testing.T) {
	clip := []float64{0.5, -0.25, 0.125}
	s := newStream(newTestVoice(t), clip)

	// 200 frames needs several host blocks of at most 64.
	p := make([]byte, 200*bytesPerFrame)

	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read() = %d, %v, want %d, nil", n, err, len(p))
	}

	got := decodeFloats(p)

	for i := range 200 {
		var want float32
		if i >= 32 {
			want = float32(clip[(i-32)%len(clip)])
		}

		if got[2*i] != want || got[2*i+1] != want {
			t.Fatalf("frame %d = (%v, %v), want %v", i, got[2*i], got[2*i+1], want)
		}
	}

	select {
	case err := <-s.Errors():
		t.Fatalf("stream reported %v", err)
	default:
	}
}

func TestStreamEmptyClipIsSilent(t *testing.T) {
	s := newStream(newTestVoice(t), nil)

	p := make([]byte, 64*bytesPerFrame)
	if _, err := s.Read(p); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	for i, x := range decodeFloats(p) {
		if x != 0 {
			t.Fatalf("sample %d = %v, want 0", i, x)
		}
	}
}

func TestStreamReadDoesNotAllocate(t *testing.T) {
	s := newStream(newTestVoice(t), testutil.DeterministicNoise(2, 0.5, 1000))
	p := make([]byte, 256*bytesPerFrame)

	allocs := testing.AllocsPerRun(20, func() { _, _ = s.Read(p) })
	if allocs != 0 {
		t.Fatalf("Read() allocated %.1f times per call, want 0", allocs)
	}
}

func TestOrbit(t *testing.T) {
	m := orbit(2, 8)

	tests := []struct {
		t    float64
		want geom.Vector3
	}{
		{0, geom.Vec(0, 0, -2)},
		{2, geom.Vec(-2, 0, 0)},
		{4, geom.Vec(0, 0, 2)},
		{8, geom.Vec(0, 0, -2)},
	}

	for _, tt := range tests {
		cs := m.at(tt.t)
		if geom.Distance(cs.Origin, tt.want) > 1e-9 {
			t.Fatalf("at(%v) = %v, want %v", tt.t, cs.Origin, tt.want)
		}

		// The source faces the listener.
		if d := geom.Dot(cs.Ahead, geom.Normalize(geom.Scale(tt.want, -1))); math.Abs(d-1) > 1e-9 {
			t.Fatalf("at(%v) faces %v, want the listener", tt.t, cs.Ahead)
		}
	}
}

func TestLoadMotionFromScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")

	content := "path:\n  - {time: 0, position: [0, 0, -1]}\n  - {time: 2, position: [0, 0, -3]}\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}

	m, g, err := loadMotion(options{scene: path})
	if err != nil {
		t.Fatalf("loadMotion() error = %v", err)
	}

	if g != nil {
		t.Fatalf("geometry = %v, want nil without meshes", g)
	}

	// Three seconds wraps to one second into the two second path.
	if got := m.at(3).Origin; geom.Distance(got, geom.Vec(0, 0, -2)) > 1e-12 {
		t.Fatalf("at(3) = %v, want (0, 0, -2)", got)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
