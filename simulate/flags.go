package simulate

import "strings"

// DirectSimulationFlags selects which terms of the direct path are computed.
// Unset terms keep their identity value.
type DirectSimulationFlags uint32

const (
	SimulateDistanceAttenuation DirectSimulationFlags = 1 << iota
	SimulateAirAbsorption
	SimulateDirectivity
	SimulateOcclusion
	SimulateTransmission
	SimulateDelay

	SimulateAll = SimulateDistanceAttenuation | SimulateAirAbsorption | SimulateDirectivity |
		SimulateOcclusion | SimulateTransmission | SimulateDelay
)

// Has reports whether every bit of f2 is set in f.
func (f DirectSimulationFlags) Has(f2 DirectSimulationFlags) bool {
	return f&f2 == f2
}

var simulationFlagNames = []struct {
	flag DirectSimulationFlags
	name string
}{
	{SimulateDistanceAttenuation, "distance"},
	{SimulateAirAbsorption, "air"},
	{SimulateDirectivity, "directivity"},
	{SimulateOcclusion, "occlusion"},
	{SimulateTransmission, "transmission"},
	{SimulateDelay, "delay"},
}

func (f DirectSimulationFlags) String() string {
	var parts []string
	for _, n := range simulationFlagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, "|")
}

// ParseSimulationFlag maps a flag name as printed by String to its bit.
func ParseSimulationFlag(name string) (DirectSimulationFlags, bool) {
	if name == "all" {
		return SimulateAll, true
	}

	for _, n := range simulationFlagNames {
		if n.name == name {
			return n.flag, true
		}
	}

	return 0, false
}

// OcclusionType selects the occlusion algorithm.
type OcclusionType int

const (
	// OcclusionRaycast tests the single segment between source and
	// listener.
	OcclusionRaycast OcclusionType = iota
	// OcclusionVolumetric treats the source as a sphere and returns the
	// visible fraction of sample points inside it.
	OcclusionVolumetric
)

func (t OcclusionType) String() string {
	switch t {
	case OcclusionRaycast:
		return "raycast"
	case OcclusionVolumetric:
		return "volumetric"
	default:
		return "unknown"
	}
}
