package spatial

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/hrtf"
	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/internal/testutil"
)

var (
	right = geom.Vec(1, 0, 0)
	left  = geom.Vec(-1, 0, 0)
	ahead = geom.Vec(0, 0, -1)
)

// earSet is a toy HRIR set: the near ear hears the source at once, the far
// ear two samples later at half level. Straight ahead both ears get 0.5.
func earSet(t testing.TB) *hrtf.Dataset {
	t.Helper()

	d, err := hrtf.NewDataset(48000,
		[]geom.Vector3{right, left, ahead},
		[]hrtf.HRIR{
			{Left: []float64{0, 0, 0.5}, Right: []float64{1}},
			{Left: []float64{1}, Right: []float64{0, 0, 0.5}},
			{Left: []float64{0.5}, Right: []float64{0.5}},
		})
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}

	return d
}

func newBinaural(t testing.TB, frame int, p hrtf.Provider) *BinauralEffect {
	t.Helper()

	b, err := NewBinauralEffect(core.ApplyProcessorOptions(core.WithSampleRate(48000), core.WithFrameSize(frame)), p)
	if err != nil {
		t.Fatalf("NewBinauralEffect() error = %v", err)
	}

	return b
}

func render(b *BinauralEffect, dir geom.Vector3, mode Interpolation, in []float64) (l, r []float64) {
	out := buffer.New(2, len(in))
	b.Apply(BinauralEffectParams{Direction: dir, Interpolation: mode}, buffer.FromChannels(in), out)

	return out.Channel(0), out.Channel(1)
}

func TestBinauralSteadyDirection(t *testing.T) {
	b := newBinaural(t, 4, earSet(t))

	l, r := render(b, geom.Vec(3, 0.1, 0), InterpolationNearest, []float64{1, 0, 0, 0})
	testutil.RequireSliceNearlyEqual(t, l, []float64{0, 0, 0.5, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, []float64{1, 0, 0, 0}, 1e-12)

	l, r = render(b, geom.Vec(3, 0.1, 0), InterpolationNearest, []float64{0, 0, 0, 2})
	testutil.RequireSliceNearlyEqual(t, l, []float64{0, 0, 0, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, []float64{0, 0, 0, 2}, 1e-12)

	if got := b.Direction(); geom.Distance(got, geom.Normalize(geom.Vec(3, 0.1, 0))) > 1e-12 {
		t.Fatalf("Direction() = %v", got)
	}
}

func TestBinauralCrossfadeOnDirectionChange(t *testing.T) {
	frames := [][]float64{{1, 0.5, 0, -1}, {0.25, 1, -0.5, 0.75}}

	moving := newBinaural(t, 4, earSet(t))
	fromRef := newBinaural(t, 4, earSet(t))
	toRef := newBinaural(t, 4, earSet(t))

	render(moving, right, InterpolationNearest, frames[0])
	render(fromRef, right, InterpolationNearest, frames[0])
	render(toRef, left, InterpolationNearest, frames[0])

	gl, gr := render(moving, left, InterpolationNearest, frames[1])
	al, ar := render(fromRef, right, InterpolationNearest, frames[1])
	bl, br := render(toRef, left, InterpolationNearest, frames[1])

	for i := range gl {
		w := float64(i+1) / 4
		wantL := al[i] + w*(bl[i]-al[i])
		wantR := ar[i] + w*(br[i]-ar[i])

		if abs(gl[i]-wantL) > 1e-12 || abs(gr[i]-wantR) > 1e-12 {
			t.Fatalf("sample %d = (%v, %v), want (%v, %v)", i, gl[i], gr[i], wantL, wantR)
		}
	}

	// The frame after the fade runs the new HRIR only.
	gl, gr = render(moving, left, InterpolationNearest, frames[0])
	bl, br = render(toRef, left, InterpolationNearest, frames[0])
	testutil.RequireSliceNearlyEqual(t, gl, bl, 1e-12)
	testutil.RequireSliceNearlyEqual(t, gr, br, 1e-12)
}

func TestBinauralZeroDirectionKeepsPrevious(t *testing.T) {
	held := newBinaural(t, 4, earSet(t))
	ref := newBinaural(t, 4, earSet(t))

	in := []float64{1, -1, 0.5, 0}

	render(held, left, InterpolationNearest, in)
	render(ref, left, InterpolationNearest, in)

	for range 3 {
		hl, hr := render(held, geom.Vector3{}, InterpolationNearest, in)
		rl, rr := render(ref, left, InterpolationNearest, in)
		testutil.RequireSliceNearlyEqual(t, hl, rl, 0)
		testutil.RequireSliceNearlyEqual(t, hr, rr, 0)
	}

	if held.Direction() != left {
		t.Fatalf("Direction() = %v, want %v", held.Direction(), left)
	}
}

func TestBinauralBilinearBlend(t *testing.T) {
	b := newBinaural(t, 4, earSet(t))

	// 45 degrees right: right and ahead are 45 degrees away, left 135, so
	// the weights are 3/7, 3/7 and 1/7.
	l, r := render(b, hrtf.DirectionFromAngles(45, 0), InterpolationBilinear, []float64{1, 0, 0, 0})

	wantL := []float64{3.0/7*0.5 + 1.0/7, 0, 3.0 / 7 * 0.5, 0}
	wantR := []float64{3.0/7 + 3.0/7*0.5, 0, 1.0 / 7 * 0.5, 0}
	testutil.RequireSliceNearlyEqual(t, l, wantL, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, wantR, 1e-12)

	n := newBinaural(t, 4, earSet(t))
	l, r = render(n, hrtf.DirectionFromAngles(40, 0), InterpolationNearest, []float64{1, 0, 0, 0})
	testutil.RequireSliceNearlyEqual(t, l, []float64{0.5, 0, 0, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, []float64{0.5, 0, 0, 0}, 1e-12)
}

func TestBinauralTail(t *testing.T) {
	b := newBinaural(t, 4, earSet(t))
	if b.TailSize() != 1 {
		t.Fatalf("TailSize() = %d, want 1", b.TailSize())
	}

	render(b, right, InterpolationNearest, []float64{0, 0, 0, 1})

	out := buffer.New(2, 4)
	if st := b.Tail(out); st != effects.StateTailComplete {
		t.Fatalf("Tail() = %v, want complete after one frame", st)
	}

	testutil.RequireSliceNearlyEqual(t, out.Channel(0), []float64{0, 0.5, 0, 0}, 1e-12)

	if st := b.Tail(out); st != effects.StateTailComplete || !out.IsSilent() {
		t.Fatalf("second Tail() = %v, silent %v", st, out.IsSilent())
	}
}

func TestBinauralReset(t *testing.T) {
	b := newBinaural(t, 4, earSet(t))
	render(b, left, InterpolationNearest, []float64{1, 1, 1, 1})

	b.Reset()

	if b.Direction() != ahead {
		t.Fatalf("Direction() after Reset = %v, want ahead", b.Direction())
	}

	// No history and no crossfade from the old direction.
	l, r := render(b, right, InterpolationNearest, []float64{1, 0, 0, 0})
	testutil.RequireSliceNearlyEqual(t, l, []float64{0, 0, 0.5, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, r, []float64{1, 0, 0, 0}, 1e-12)
}

func TestBinauralSphericalHeadITD(t *testing.T) {
	head, err := hrtf.NewSphericalHead(48000)
	if err != nil {
		t.Fatalf("NewSphericalHead() error = %v", err)
	}

	tests := []struct {
		name      string
		dir       geom.Vector3
		leftLeads bool
	}{
		{"right", right, false},
		{"left", left, true},
		{"front right", hrtf.DirectionFromAngles(40, 10), false},
	}
	for _, tt := range tests {
		b := newBinaural(t, 128, head)
		l, r := render(b, tt.dir, InterpolationBilinear, testutil.Impulse(128, 0))

		li, ri := testutil.PeakIndex(l), testutil.PeakIndex(r)
		if (li < ri) != tt.leftLeads || li == ri {
			t.Fatalf("%s: left peak %d, right peak %d", tt.name, li, ri)
		}
	}
}

func TestBinauralRejectsWrongFrameSize(t *testing.T) {
	b := newBinaural(t, 4, earSet(t))

	out := buffer.New(2, 3)
	out.Channel(0)[0] = 1

	st := b.Apply(BinauralEffectParams{Direction: right}, buffer.FromChannels([]float64{1, 0, 0}), out)
	if st != effects.StateTailComplete || !out.IsSilent() {
		t.Fatalf("Apply() with 3 samples = %v, silent %v, want complete and silent", st, out.IsSilent())
	}

	if err := b.Err(); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("Err() = %v, want ErrFrameSize", err)
	}

	if st := b.Tail(buffer.New(1, 4)); st != effects.StateTailComplete {
		t.Fatalf("Tail() with one channel = %v, want complete", st)
	}

	// A well-formed frame still renders, and Reset clears the error.
	_, r := render(b, right, InterpolationNearest, []float64{1, 0, 0, 0})
	testutil.RequireSliceNearlyEqual(t, r, []float64{1, 0, 0, 0}, 1e-12)

	b.Reset()

	if err := b.Err(); err != nil {
		t.Fatalf("Err() after Reset = %v, want nil", err)
	}
}

func TestNewBinauralEffectErrors(t *testing.T) {
	cfg := core.DefaultProcessorConfig()

	head, err := hrtf.NewSphericalHead(44100, hrtf.WithGridStep(45))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewBinauralEffect(cfg, head); !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("rate mismatch error = %v", err)
	}

	if _, err := NewBinauralEffect(cfg, nil); !errors.Is(err, hrtf.ErrMalformedHRTF) {
		t.Fatalf("nil provider error = %v", err)
	}

	if _, err := NewBinauralEffect(core.ProcessorConfig{SampleRate: 48000}, earSet(t)); !errors.Is(err, core.ErrInvalidFrameSize) {
		t.Fatalf("bad config error = %v", err)
	}
}

func TestInterpolationString(t *testing.T) {
	if InterpolationNearest.String() != "nearest" || InterpolationBilinear.String() != "bilinear" || Interpolation(7).String() != "unknown" {
		t.Fatal("unexpected Interpolation strings")
	}
}

func BenchmarkBinauralMovingSource(b *testing.B) {
	head, err := hrtf.NewSphericalHead(48000)
	if err != nil {
		b.Fatal(err)
	}

	e := newBinaural(b, 256, head)
	in := buffer.FromChannels(testutil.DeterministicNoise(2, 0.5, 256))
	out := buffer.New(2, 256)
	az := 0.0

	for b.Loop() {
		az += 1
		e.Apply(BinauralEffectParams{Direction: hrtf.DirectionFromAngles(az, 0), Interpolation: InterpolationBilinear}, in, out)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
