package hrtf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/internal/audiofile"
)

// Manifest lists the stereo WAV files of a measured HRIR set.
//
//	sample_rate: 48000
//	hrirs:
//	  - {azimuth: 0, elevation: 0, file: az000_el00.wav}
//	  - {azimuth: 90, elevation: 0, file: az090_el00.wav}
type Manifest struct {
	SampleRate float64         `yaml:"sample_rate"`
	HRIRs      []ManifestEntry `yaml:"hrirs"`
}

// ManifestEntry is one measured direction. File paths are relative to the
// manifest. Channel 0 holds the left ear, channel 1 the right.
type ManifestEntry struct {
	Azimuth   float64 `yaml:"azimuth"`
	Elevation float64 `yaml:"elevation"`
	File      string  `yaml:"file"`
}

// ParseManifest decodes manifest YAML. Unknown keys are rejected.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest: %w", ErrMalformedHRTF, err)
	}

	if len(m.HRIRs) == 0 {
		return Manifest{}, fmt.Errorf("%w: manifest lists no hrirs", ErrMalformedHRTF)
	}

	return m, nil
}

// LoadManifest reads a manifest and every WAV it references. All files
// must be stereo at one sample rate; when the manifest omits sample_rate the
// first file decides it.
func LoadManifest(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hrtf: %w", err)
	}

	m, err := ParseManifest(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	rate := m.SampleRate

	dirs := make([]geom.Vector3, 0, len(m.HRIRs))
	hrirs := make([]HRIR, 0, len(m.HRIRs))

	for i, e := range m.HRIRs {
		if e.File == "" {
			return nil, fmt.Errorf("%w: entry %d has no file", ErrMalformedHRTF, i)
		}

		clip, err := loadWAV(filepath.Join(dir, e.File))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedHRTF, i, err)
		}

		if clip.NumChannels() != 2 {
			return nil, fmt.Errorf("%w: %s has %d channels, want 2", ErrMalformedHRTF, e.File, clip.NumChannels())
		}

		if rate == 0 {
			rate = float64(clip.SampleRate)
		}

		if float64(clip.SampleRate) != rate {
			return nil, fmt.Errorf("%w: %s is %d Hz, want %v Hz", ErrMalformedHRTF, e.File, clip.SampleRate, rate)
		}

		dirs = append(dirs, DirectionFromAngles(e.Azimuth, e.Elevation))
		hrirs = append(hrirs, HRIR{Left: clip.Channels[0], Right: clip.Channels[1]})
	}

	return NewDataset(rate, dirs, hrirs)
}

func loadWAV(path string) (*audiofile.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return audiofile.DecodeWAV(f)
}
