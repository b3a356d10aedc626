package reverb

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func newTestReverb(t *testing.T, frameSize int) *ReverbEffect {
	t.Helper()

	r, err := NewReverbEffect(core.ApplyProcessorOptions(core.WithSampleRate(48000), core.WithFrameSize(frameSize)))
	if err != nil {
		t.Fatalf("NewReverbEffect() error = %v", err)
	}

	return r
}

func uniform(rt float64) ReverbEffectParams {
	return ReverbEffectParams{Reverb: Reverb{ReverbTimes: [3]float64{rt, rt, rt}}}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func TestDelayLengths(t *testing.T) {
	for _, sr := range []float64{8000, 22050, 44100, 48000, 96000} {
		d := delayLengths(sr)
		if d != delayLengths(sr) {
			t.Fatalf("sr=%v: delay lengths are not deterministic", sr)
		}

		mean := meanDelaySeconds * sr
		for i, a := range d {
			// Nominal lengths span 0.5 to 1.5 times the mean before jitter and
			// rounding to a prime power.
			if float64(a) < 0.4*mean || float64(a) > 1.7*mean {
				t.Fatalf("sr=%v: delay %d = %d far from mean %.0f", sr, i, a, mean)
			}

			for _, b := range d[i+1:] {
				if gcd(a, b) != 1 {
					t.Fatalf("sr=%v: delays %d and %d share a factor", sr, a, b)
				}
			}
		}
	}
}

func TestNearestPrimePower(t *testing.T) {
	tests := []struct {
		p      int
		target float64
		want   int
	}{
		{2, 1000, 1024},
		{3, 100, 81},
		{53, 10, 53},
		{7, 2401, 2401},
		{43, 1800, 1849},
	}
	for _, tt := range tests {
		if got := nearestPrimePower(tt.p, tt.target); got != tt.want {
			t.Fatalf("nearestPrimePower(%d, %v) = %d, want %d", tt.p, tt.target, got, tt.want)
		}
	}
}

func TestNearestUnusedPrime(t *testing.T) {
	tests := []struct {
		n    int
		used []int
		want int
	}{
		{100, nil, 101},
		{97, nil, 97},
		{97, []int{97}, 101},
		{1, nil, 2},
		{12, nil, 11},
		{12, []int{11, 13}, 7},
	}
	for _, tt := range tests {
		used := make(map[int]bool)
		for _, u := range tt.used {
			used[u] = true
		}

		if got := nearestUnusedPrime(tt.n, used); got != tt.want {
			t.Fatalf("nearestUnusedPrime(%d, %v) = %d, want %d", tt.n, tt.used, got, tt.want)
		}
	}
}

func TestHadamard16(t *testing.T) {
	var v [numDelays]float64
	v[0] = 1

	hadamard16(&v)
	for i, x := range v {
		if x != hadamardScale {
			t.Fatalf("H*e0 [%d] = %v, want %v", i, x, hadamardScale)
		}
	}

	var w [numDelays]float64
	for i := range w {
		w[i] = float64(i*i%7) - 3
	}

	orig := w
	energy := 0.0
	for _, x := range w {
		energy += x * x
	}

	hadamard16(&w)

	got := 0.0
	for _, x := range w {
		got += x * x
	}

	if math.Abs(got-energy) > 1e-9 {
		t.Fatalf("energy %v -> %v, want preserved", energy, got)
	}

	hadamard16(&w)
	for i := range w {
		if math.Abs(w[i]-orig[i]) > 1e-12 {
			t.Fatalf("H*H*w [%d] = %v, want %v", i, w[i], orig[i])
		}
	}
}

func TestReverbClamped(t *testing.T) {
	got := Reverb{ReverbTimes: [3]float64{0, math.NaN(), 1000}}.Clamped()
	want := [3]float64{MinReverbTime, MinReverbTime, MaxReverbTime}
	if got.ReverbTimes != want {
		t.Fatalf("Clamped() = %v, want %v", got.ReverbTimes, want)
	}

	ok := Reverb{ReverbTimes: [3]float64{0.5, 1, 2}}
	if ok.Clamped() != ok {
		t.Fatalf("Clamped() changed valid times: %v", ok.Clamped())
	}

	if ok.MaxReverbTime() != 2 {
		t.Fatalf("MaxReverbTime() = %v, want 2", ok.MaxReverbTime())
	}
}

func TestReverbTailLifecycle(t *testing.T) {
	const frame = 256

	r := newTestReverb(t, frame)
	if r.TailSize() != 0 {
		t.Fatalf("TailSize() before Apply = %d, want 0", r.TailSize())
	}

	in := buffer.FromChannels(testutil.Impulse(frame, 0))
	out := buffer.New(1, frame)

	if st := r.Apply(uniform(0.5), in, out); st != effects.StateTailRemaining {
		t.Fatalf("Apply state = %v, want tail remaining", st)
	}

	// ceil(2 * 0.5 * 48000 / 256) = 188
	if got := r.TailSize(); got != 188 {
		t.Fatalf("TailSize() = %d, want 188", got)
	}

	frames := 0
	for {
		st := r.Tail(out)
		frames++

		// The shortest line is 961 samples, so the first echo lands in tail frame 3.
		if frames >= 4 && frames <= 20 && out.IsSilent() {
			t.Fatalf("tail frame %d is silent", frames)
		}

		if st == effects.StateTailComplete {
			break
		}

		if frames > 188 {
			t.Fatal("tail did not complete")
		}
	}

	if frames != 188 {
		t.Fatalf("tail lasted %d frames, want 188", frames)
	}

	if st := r.Tail(out); st != effects.StateTailComplete || !out.IsSilent() {
		t.Fatalf("after tail: state %v, silent %v", st, out.IsSilent())
	}
}

func TestReverbDecayFollowsReverbTime(t *testing.T) {
	const frame = 480

	r := newTestReverb(t, frame)
	out := buffer.New(1, frame)

	var rendered []float64

	r.Apply(uniform(1), buffer.FromChannels(testutil.Impulse(frame, 0)), out)
	rendered = append(rendered, out.Channel(0)...)

	for len(rendered) < 48000*8/10 {
		r.Tail(out)
		rendered = append(rendered, out.Channel(0)...)
	}

	early := testutil.Energy(rendered[9600:14400]) // 0.2 s to 0.3 s
	late := testutil.Energy(rendered[33600:38400]) // 0.7 s to 0.8 s

	drop := 10 * math.Log10(early/late)
	if drop < 24 || drop > 36 {
		t.Fatalf("energy drop over 0.5 s = %.1f dB, want about 30 dB for a 1 s reverb", drop)
	}

	testutil.RequireFinite(t, rendered)
}

func TestReverbInPlaceMatchesSeparateBuffers(t *testing.T) {
	const frame = 256

	a := newTestReverb(t, frame)
	b := newTestReverb(t, frame)

	signal := testutil.DeterministicNoise(3, 0.5, frame*4)
	out := buffer.New(1, frame)

	for f := range 4 {
		chunk := signal[f*frame : (f+1)*frame]

		a.Apply(uniform(0.8), buffer.FromChannels(chunk), out)

		inPlace := buffer.FromChannels(append([]float64(nil), chunk...))
		b.Apply(uniform(0.8), inPlace, inPlace)

		testutil.RequireSliceNearlyEqual(t, inPlace.Channel(0), out.Channel(0), 0)
	}
}

func TestReverbParameterChangeAndReset(t *testing.T) {
	const frame = 128

	r := newTestReverb(t, frame)
	noise := buffer.FromChannels(testutil.DeterministicNoise(9, 1, frame))
	out := buffer.New(1, frame)

	for f := range 10 {
		rt := 0.3
		if f%2 == 1 {
			rt = 2
		}
		r.Apply(ReverbEffectParams{Reverb: Reverb{ReverbTimes: [3]float64{rt, rt / 2, rt / 4}}}, noise, out)
		testutil.RequireFinite(t, out.Channel(0))
	}

	r.Reset()
	if r.TailSize() != 0 {
		t.Fatalf("TailSize() after Reset = %d, want 0", r.TailSize())
	}

	r.Apply(uniform(1), buffer.New(1, frame), out)
	if !out.IsSilent() {
		t.Fatal("reverb kept history across Reset")
	}
}

func BenchmarkReverbFrame(b *testing.B) {
	r, _ := NewReverbEffect(core.DefaultProcessorConfig())
	in := buffer.FromChannels(testutil.DeterministicNoise(1, 0.5, 256))
	out := buffer.New(1, 256)

	for b.Loop() {
		r.Apply(uniform(1.5), in, out)
	}
}
