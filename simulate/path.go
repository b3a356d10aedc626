package simulate

import "github.com/cwbudde/algo-spatial/scene"

// NumBands is the number of frequency bands carried by a DirectSoundPath.
const NumBands = scene.NumBands

// DirectSoundPath holds the simulated parameters of the direct sound.
type DirectSoundPath struct {
	DistanceAttenuation float64
	AirAbsorption       [NumBands]float64
	// Delay is the propagation delay in seconds.
	Delay        float64
	Occlusion    float64
	Transmission [NumBands]float64
	Directivity  float64
}

// IdentityPath returns a path that leaves the signal unchanged.
func IdentityPath() DirectSoundPath {
	return DirectSoundPath{
		DistanceAttenuation: 1,
		AirAbsorption:       [NumBands]float64{1, 1, 1},
		Occlusion:           1,
		Transmission:        [NumBands]float64{1, 1, 1},
		Directivity:         1,
	}
}
