package audiofile

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		clip := &Clip{
			SampleRate: 44100,
			Channels: [][]float64{
				{0, 0.5, -0.5, 0.25, 1},
				{-1, 0.125, 0, -0.25, 0.75},
			},
		}

		path := filepath.Join(t.TempDir(), "out.wav")
		if err := WriteWAV(path, clip, depth); err != nil {
			t.Fatalf("WriteWAV(%d) error = %v", depth, err)
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if got.SampleRate != 44100 || got.NumChannels() != 2 || got.Len() != 5 {
			t.Fatalf("%d-bit: got %d Hz, %d ch, %d frames", depth, got.SampleRate, got.NumChannels(), got.Len())
		}

		tol := 2 / math.Ldexp(1, depth-1)
		for c := range clip.Channels {
			for i, want := range clip.Channels[c] {
				if d := math.Abs(got.Channels[c][i] - want); d > tol {
					t.Fatalf("%d-bit ch%d[%d] = %v, want %v", depth, c, i, got.Channels[c][i], want)
				}
			}
		}
	}
}

func TestEncodeWAVClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAV(path, &Clip{SampleRate: 8000, Channels: [][]float64{{3, -3}}}, 16); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if ch := got.Channels[0]; ch[0] > 1 || ch[0] < 0.999 || ch[1] < -1 || ch[1] > -0.999 {
		t.Fatalf("clipped samples = %v", ch)
	}
}

func TestEncodeWAVErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")

	if err := WriteWAV(path, &Clip{SampleRate: 8000, Channels: [][]float64{{0}}}, 12); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("12-bit error = %v, want ErrUnsupportedFormat", err)
	}

	if err := WriteWAV(path, &Clip{SampleRate: 8000}, 16); !errors.Is(err, ErrEmpty) {
		t.Fatalf("no channels error = %v, want ErrEmpty", err)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a riff file")))
	if !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("DecodeWAV() error = %v, want ErrInvalidWAV", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Load(.txt) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing) error = %v, want not exist", err)
	}

	bad := filepath.Join(dir, "bad.ogg")
	if err := os.WriteFile(bad, []byte("OggS but not really"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(bad); err == nil {
		t.Fatal("Load(corrupt ogg) succeeded")
	}
}

func TestClipMono(t *testing.T) {
	tests := []struct {
		name string
		clip Clip
		want []float64
	}{
		{"mono", Clip{Channels: [][]float64{{1, 2}}}, []float64{1, 2}},
		{"stereo", Clip{Channels: [][]float64{{1, 0}, {0, 1}}}, []float64{0.5, 0.5}},
		{"empty", Clip{}, []float64{}},
	}
	for _, tt := range tests {
		got := tt.clip.Mono()
		if len(got) != len(tt.want) {
			t.Fatalf("%s: Mono() = %v, want %v", tt.name, got, tt.want)
		}

		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%s: Mono() = %v, want %v", tt.name, got, tt.want)
			}
		}
	}
}

func TestClipDuration(t *testing.T) {
	c := Clip{SampleRate: 100, Channels: [][]float64{make([]float64, 250)}}
	if got := c.Duration(); got != 2.5 {
		t.Fatalf("Duration() = %v, want 2.5", got)
	}

	if got := (&Clip{}).Duration(); got != 0 {
		t.Fatalf("empty Duration() = %v, want 0", got)
	}
}

func TestClipResample(t *testing.T) {
	c := &Clip{SampleRate: 44100, Channels: [][]float64{make([]float64, 4410), make([]float64, 4410)}}

	same, err := c.Resample(44100)
	if err != nil || same != c {
		t.Fatalf("Resample(44100) = %p, %v, want the clip itself", same, err)
	}

	r, err := c.Resample(48000)
	if err != nil {
		t.Fatalf("Resample(48000) error = %v", err)
	}

	if r.SampleRate != 48000 || r.NumChannels() != 2 || r.Len() != 4800 {
		t.Fatalf("Resample(48000) = %d Hz, %d ch, %d frames", r.SampleRate, r.NumChannels(), r.Len())
	}

	if _, err := c.Resample(0); err == nil {
		t.Fatal("Resample(0) error = nil, want error")
	}
}
