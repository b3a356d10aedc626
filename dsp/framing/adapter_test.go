package framing

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func config(frame int) core.ProcessorConfig {
	return core.ApplyProcessorOptions(core.WithFrameSize(frame))
}

func passthrough(in, out *buffer.Buffer) { out.CopyFrom(in) }

func TestAdapterDelaysByOneFrame(t *testing.T) {
	const frame = 64

	calls := 0
	a, err := New(config(frame), 1, 1, 300, func(in, out *buffer.Buffer) {
		calls++
		passthrough(in, out)
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	signal := testutil.DeterministicNoise(5, 1, 5000)
	sizes := []int{1, 64, 63, 65, 300, 17, 128, 5, 200, 33}

	var got []float64
	for pos, i := 0, 0; pos < len(signal); i++ {
		n := min(sizes[i%len(sizes)], len(signal)-pos)
		out := make([]float64, n)

		if err := a.Process([][]float64{signal[pos : pos+n]}, [][]float64{out}); err != nil {
			t.Fatalf("Process(%d) error = %v", n, err)
		}

		got = append(got, out...)
		pos += n
	}

	want := append(make([]float64, frame), signal[:len(signal)-frame]...)
	testutil.RequireSliceNearlyEqual(t, got, want, 0)

	if calls != len(signal)/frame {
		t.Fatalf("frame func ran %d times, want %d", calls, len(signal)/frame)
	}

	if a.Latency() != frame {
		t.Fatalf("Latency() = %d, want %d", a.Latency(), frame)
	}
}

func TestAdapterMultichannel(t *testing.T) {
	// Mono to stereo: left is the input, right its negation.
	a, err := New(config(4), 1, 2, 8, func(in, out *buffer.Buffer) {
		for i, v := range in.Channel(0) {
			out.Channel(0)[i] = v
			out.Channel(1)[i] = -v
		}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	l, r := make([]float64, 8), make([]float64, 8)

	if err := a.Process([][]float64{in}, [][]float64{l, r}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, l, []float64{0, 0, 0, 0, 1, 2, 3, 4}, 0)
	testutil.RequireSliceNearlyEqual(t, r, []float64{0, 0, 0, 0, -1, -2, -3, -4}, 0)
}

func TestAdapterInterleaved(t *testing.T) {
	a, err := New(config(2), 1, 2, 4, func(in, out *buffer.Buffer) {
		for i, v := range in.Channel(0) {
			out.Channel(0)[i] = v
			out.Channel(1)[i] = 2 * v
		}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out := make([]float32, 8)
	if err := a.ProcessInterleaved([]float32{1, 2, 3, 4}, out); err != nil {
		t.Fatalf("ProcessInterleaved() error = %v", err)
	}

	want := []float32{0, 0, 0, 0, 1, 2, 2, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}

	// nil input feeds silence; the queued frame still comes out.
	if err := a.ProcessInterleaved(nil, out[:4]); err != nil {
		t.Fatalf("ProcessInterleaved(nil) error = %v", err)
	}

	if out[0] != 3 || out[1] != 6 || out[2] != 4 || out[3] != 8 {
		t.Fatalf("out = %v, want [3 6 4 8 ...]", out[:4])
	}

	if err := a.ProcessInterleaved(nil, make([]float32, 3)); !errors.Is(err, ErrBlockLength) {
		t.Fatalf("odd stereo length error = %v", err)
	}

	if err := a.ProcessInterleaved(nil, make([]float32, 10)); !errors.Is(err, ErrHostBlockTooLarge) {
		t.Fatalf("oversized error = %v", err)
	}
}

func TestAdapterErrors(t *testing.T) {
	a, err := New(config(4), 1, 1, 8, passthrough)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name    string
		in, out [][]float64
		want    error
	}{
		{"too large", [][]float64{make([]float64, 9)}, [][]float64{make([]float64, 9)}, ErrHostBlockTooLarge},
		{"channels", [][]float64{{0}, {0}}, [][]float64{{0}}, ErrChannelMismatch},
		{"lengths", [][]float64{{0, 0}}, [][]float64{{0}}, ErrBlockLength},
	}
	for _, tt := range tests {
		if err := a.Process(tt.in, tt.out); !errors.Is(err, tt.want) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	bad := []struct {
		name        string
		in, out, mb int
		fn          FrameFunc
	}{
		{"no input channels", 0, 1, 8, passthrough},
		{"no max block", 1, 1, 0, passthrough},
		{"nil func", 1, 1, 8, nil},
	}
	for _, tt := range bad {
		if _, err := New(config(4), tt.in, tt.out, tt.mb, tt.fn); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: error = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestAdapterReset(t *testing.T) {
	a, _ := New(config(2), 1, 1, 4, passthrough)
	out := make([]float64, 3)

	_ = a.Process([][]float64{{1, 1, 1}}, [][]float64{out})
	a.Reset()
	_ = a.Process([][]float64{{5, 6, 7}}, [][]float64{out})

	testutil.RequireSliceNearlyEqual(t, out, []float64{0, 0, 5}, 0)
}

func TestAdapterDoesNotAllocate(t *testing.T) {
	a, _ := New(config(64), 1, 2, 256, func(in, out *buffer.Buffer) {
		copy(out.Channel(0), in.Channel(0))
		copy(out.Channel(1), in.Channel(0))
	})

	in := [][]float64{make([]float64, 100)}
	out := [][]float64{make([]float64, 100), make([]float64, 100)}
	inter := make([]float32, 200)

	allocs := testing.AllocsPerRun(50, func() {
		_ = a.Process(in, out)
		_ = a.ProcessInterleaved(nil, inter)
	})
	if allocs != 0 {
		t.Fatalf("allocations per block = %v, want 0", allocs)
	}
}
