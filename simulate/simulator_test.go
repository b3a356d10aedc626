package simulate

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
)

const eps = 1e-12

// wallScene builds a committed scene with square walls of half-size h in
// the planes z = zs[i], centred on the z axis.
func wallScene(t *testing.T, h float64, m scene.Material, zs ...float64) *scene.Scene {
	t.Helper()

	s := scene.NewArena().NewScene()
	for _, z := range zs {
		vertices := []geom.Vector3{
			geom.Vec(-h, -h, z), geom.Vec(h, -h, z), geom.Vec(h, h, z), geom.Vec(-h, h, z),
		}
		mesh, err := scene.NewStaticMesh(vertices, []geom.Triangle{{0, 1, 2}, {0, 2, 3}}, []int{0, 0}, []scene.Material{m})
		if err != nil {
			t.Fatalf("NewStaticMesh() error = %v", err)
		}
		s.AddStaticMesh(mesh)
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	return s
}

func pose(x, y, z float64) geom.CoordinateSpace {
	cs := geom.DefaultCoordinateSpace()
	cs.Origin = geom.Vec(x, y, z)

	return cs
}

func newSimulator(t *testing.T) *DirectSimulator {
	t.Helper()

	s, err := NewDirectSimulator(512)
	if err != nil {
		t.Fatalf("NewDirectSimulator() error = %v", err)
	}

	return s
}

var glass = scene.Material{Transmission: [NumBands]float64{0.5, 0.25, 0.1}}

func TestNewDirectSimulatorValidation(t *testing.T) {
	if _, err := NewDirectSimulator(0); err == nil {
		t.Fatal("expected error for zero samples")
	}
	if _, err := NewDirectSimulator(8, WithSpeedOfSound(-1)); err == nil {
		t.Fatal("expected error for negative speed of sound")
	}
}

func TestSimulateIdentityWithoutFlags(t *testing.T) {
	sim := newSimulator(t)
	walls := wallScene(t, 10, glass, 0)

	got := sim.Simulate(walls, 0, pose(0, 0, 5), pose(0, 0, -5), DirectInputs{NumTransmissionRays: 4})
	if got != IdentityPath() {
		t.Fatalf("Simulate() = %+v, want identity", got)
	}
}

func TestSimulateWithoutScene(t *testing.T) {
	sim := newSimulator(t)

	got := sim.Simulate(nil, SimulateAll, pose(0, 0, 0), pose(0, 0, -10), DirectInputs{NumTransmissionRays: 4})

	if math.Abs(got.DistanceAttenuation-0.1) > eps {
		t.Fatalf("DistanceAttenuation = %v, want 0.1", got.DistanceAttenuation)
	}
	if math.Abs(got.Delay-10/SpeedOfSound) > eps {
		t.Fatalf("Delay = %v, want %v", got.Delay, 10/SpeedOfSound)
	}
	for b := range NumBands {
		want := math.Exp(-DefaultAirAbsorptionCoefficients[b] * 10)
		if math.Abs(got.AirAbsorption[b]-want) > eps {
			t.Fatalf("AirAbsorption[%d] = %v, want %v", b, got.AirAbsorption[b], want)
		}
	}
	if got.Occlusion != 1 || got.Transmission != [NumBands]float64{1, 1, 1} {
		t.Fatalf("occlusion/transmission = %v/%v, want identity", got.Occlusion, got.Transmission)
	}
}

func TestSimulateCustomModels(t *testing.T) {
	sim, err := NewDirectSimulator(1, WithSpeedOfSound(100))
	if err != nil {
		t.Fatal(err)
	}

	in := DirectInputs{
		DistanceModel: DistanceAttenuationFunc(func(d float64) float64 { return 1 / (1 + d) }),
		AirAbsorption: AirAbsorptionFunc(func(d float64, band int) float64 { return float64(band) / 10 }),
	}
	got := sim.Simulate(nil, SimulateAll, pose(0, 0, 0), pose(3, 0, 0), in)

	if math.Abs(got.DistanceAttenuation-0.25) > eps {
		t.Fatalf("DistanceAttenuation = %v, want 0.25", got.DistanceAttenuation)
	}
	if got.AirAbsorption != [NumBands]float64{0, 0.1, 0.2} {
		t.Fatalf("AirAbsorption = %v", got.AirAbsorption)
	}
	if math.Abs(got.Delay-0.03) > eps {
		t.Fatalf("Delay = %v, want 0.03", got.Delay)
	}
}

func TestInverseDistanceFloor(t *testing.T) {
	tests := []struct {
		model    InverseDistanceModel
		distance float64
		want     float64
	}{
		{InverseDistanceModel{}, 0, 1},
		{InverseDistanceModel{}, 0.5, 1},
		{InverseDistanceModel{}, 4, 0.25},
		{InverseDistanceModel{MinDistance: 2}, 1, 0.5},
	}

	for _, tt := range tests {
		if got := tt.model.Evaluate(tt.distance); math.Abs(got-tt.want) > eps {
			t.Fatalf("Evaluate(%v) with min %v = %v, want %v", tt.distance, tt.model.MinDistance, got, tt.want)
		}
	}
}

func TestDirectivity(t *testing.T) {
	src := pose(0, 0, 0) // ahead is -z

	tests := []struct {
		name string
		d    Directivity
		at   geom.Vector3
		want float64
	}{
		{"omni", Directivity{DipoleWeight: 0, DipolePower: 3}, geom.Vec(0, 0, 5), 1},
		{"dipole on axis", Directivity{DipoleWeight: 1, DipolePower: 1}, geom.Vec(0, 0, -5), 1},
		{"dipole side", Directivity{DipoleWeight: 1, DipolePower: 1}, geom.Vec(5, 0, 0), 0},
		{"dipole behind", Directivity{DipoleWeight: 1, DipolePower: 2}, geom.Vec(0, 0, 5), 1},
		{"cardioid behind", Directivity{DipoleWeight: 0.5, DipolePower: 1}, geom.Vec(0, 0, 5), 0},
		{"cardioid side", Directivity{DipoleWeight: 0.5, DipolePower: 2}, geom.Vec(0, 3, 0), 0.25},
		{"clamped weight", Directivity{DipoleWeight: 7, DipolePower: 1}, geom.Vec(5, 0, 0), 0},
		{"at origin", Directivity{DipoleWeight: 0.5, DipolePower: 1}, geom.Vec(0, 0, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Evaluate(src, tt.at); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectivityClamped(t *testing.T) {
	got := Directivity{DipoleWeight: -1, DipolePower: 9}.Clamped()
	if got != (Directivity{DipoleWeight: 0, DipolePower: 4}) {
		t.Fatalf("Clamped() = %+v", got)
	}

	got = Directivity{DipoleWeight: math.NaN(), DipolePower: math.NaN()}.Clamped()
	if got != (Directivity{DipoleWeight: 0, DipolePower: 1}) {
		t.Fatalf("Clamped() of NaN = %+v", got)
	}
}

func TestHaltonBall(t *testing.T) {
	if got := radicalInverse(1, 2); got != 0.5 {
		t.Fatalf("radicalInverse(1, 2) = %v, want 0.5", got)
	}
	if got := radicalInverse(5, 2); got != 0.625 {
		t.Fatalf("radicalInverse(5, 2) = %v, want 0.625", got)
	}
	if got := radicalInverse(2, 3); math.Abs(got-2.0/3) > eps {
		t.Fatalf("radicalInverse(2, 3) = %v, want 2/3", got)
	}

	points := haltonBall(1000)
	var mean geom.Vector3
	for i, p := range points {
		if l := geom.Length(p); l > 1+eps {
			t.Fatalf("point %d outside unit ball: |p| = %v", i, l)
		}
		mean = geom.Add(mean, p)
	}

	mean = geom.Scale(mean, 1.0/float64(len(points)))
	if geom.Length(mean) > 0.05 {
		t.Fatalf("sample mean %v is not centred", mean)
	}
}

func TestRaycastOcclusion(t *testing.T) {
	sim := newSimulator(t)
	walls := wallScene(t, 1, scene.DefaultMaterial, 0)
	in := DirectInputs{OcclusionType: OcclusionRaycast}

	blocked := sim.Simulate(walls, SimulateOcclusion, pose(0, 0, 5), pose(0, 0, -5), in)
	if blocked.Occlusion != 0 {
		t.Fatalf("blocked Occlusion = %v, want 0", blocked.Occlusion)
	}

	unblocked := sim.Simulate(walls, SimulateOcclusion, pose(5, 0, 5), pose(5, 0, -5), in)
	if unblocked.Occlusion != 1 {
		t.Fatalf("unblocked Occlusion = %v, want 1", unblocked.Occlusion)
	}
}

func TestVolumetricOcclusion(t *testing.T) {
	sim := newSimulator(t)
	walls := wallScene(t, 1, scene.DefaultMaterial, 0)

	in := DirectInputs{OcclusionType: OcclusionVolumetric, OcclusionRadius: 1, NumOcclusionSamples: 256}

	// Source straddles the wall edge at x = 1: roughly half the sphere is
	// visible from a listener straight across.
	partial := sim.Simulate(walls, SimulateOcclusion, pose(1, 0, 3), pose(1, 0, -3), in)
	if partial.Occlusion <= 0.2 || partial.Occlusion >= 0.8 {
		t.Fatalf("partial Occlusion = %v, want within (0.2, 0.8)", partial.Occlusion)
	}

	open := sim.Simulate(walls, SimulateOcclusion, pose(10, 0, 3), pose(10, 0, -3), in)
	if open.Occlusion != 1 {
		t.Fatalf("open Occlusion = %v, want 1", open.Occlusion)
	}

	in.OcclusionRadius = 1e-9
	for _, x := range []float64{0, 0.5, 2} {
		src, lst := pose(x, 0.3, 3), pose(x, 0.3, -3)
		vol := sim.Simulate(walls, SimulateOcclusion, src, lst, in).Occlusion
		ray := sim.Simulate(walls, SimulateOcclusion, src, lst, DirectInputs{}).Occlusion
		if vol != ray {
			t.Fatalf("x=%v: volumetric %v != raycast %v at vanishing radius", x, vol, ray)
		}
	}
}

func TestVolumetricOcclusionEnclosedSource(t *testing.T) {
	// The source sphere sits between two large walls: every sample is
	// valid and none is visible from the listener.
	walls := wallScene(t, 5, scene.DefaultMaterial, 0, 0.5)
	sim := newSimulator(t)

	in := DirectInputs{OcclusionType: OcclusionVolumetric, OcclusionRadius: 0.25, NumOcclusionSamples: 64}
	got := sim.Simulate(walls, SimulateOcclusion, pose(0, 0, 0.25), pose(0, 0, -4), in)
	if got.Occlusion != 0 {
		t.Fatalf("Occlusion = %v, want 0", got.Occlusion)
	}
}

func TestTransmission(t *testing.T) {
	sim := newSimulator(t)
	in := DirectInputs{NumTransmissionRays: 8}

	tests := []struct {
		name  string
		walls []float64
		want  [NumBands]float64
	}{
		{"no hits", nil, [NumBands]float64{1, 1, 1}},
		{"single wall", []float64{0}, glass.Transmission},
		{"front and back face", []float64{0.1, -0.1}, glass.Transmission},
		{
			"two separate walls",
			[]float64{3, -3},
			[NumBands]float64{0.5, 0.25, 0.1},
		},
		{
			"three walls",
			[]float64{3, 0, -3},
			[NumBands]float64{math.Sqrt(0.125), math.Sqrt(0.25 * 0.25 * 0.25), math.Sqrt(0.001)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walls := wallScene(t, 10, glass, tt.walls...)
			got := sim.Simulate(walls, SimulateTransmission, pose(0, 0, 5), pose(0, 0, -5), in).Transmission

			for b := range NumBands {
				if math.Abs(got[b]-tt.want[b]) > 1e-9 {
					t.Fatalf("Transmission = %v, want %v", got, tt.want)
				}
				if got[b] < 0 || got[b] > 1 {
					t.Fatalf("Transmission[%d] = %v outside [0, 1]", b, got[b])
				}
			}
		})
	}
}

func TestTransmissionRayLimit(t *testing.T) {
	sim := newSimulator(t)
	walls := wallScene(t, 10, glass, 3, -3)

	got := sim.Simulate(walls, SimulateTransmission, pose(0, 0, 5), pose(0, 0, -5), DirectInputs{NumTransmissionRays: 1})
	if got.Transmission != glass.Transmission {
		t.Fatalf("Transmission = %v, want %v", got.Transmission, glass.Transmission)
	}

	got = sim.Simulate(walls, SimulateTransmission, pose(0, 0, 5), pose(0, 0, -5), DirectInputs{})
	if got.Transmission != [NumBands]float64{1, 1, 1} {
		t.Fatalf("Transmission with zero rays = %v, want identity", got.Transmission)
	}
}

func TestSimulationFlags(t *testing.T) {
	if s := (SimulateOcclusion | SimulateDelay).String(); s != "occlusion|delay" {
		t.Fatalf("String() = %q", s)
	}
	if s := DirectSimulationFlags(0).String(); s != "none" {
		t.Fatalf("String() = %q, want none", s)
	}

	for _, name := range []string{"distance", "air", "directivity", "occlusion", "transmission", "delay"} {
		f, ok := ParseSimulationFlag(name)
		if !ok || f.String() != name {
			t.Fatalf("ParseSimulationFlag(%q) = %v, %v", name, f, ok)
		}
	}

	if f, ok := ParseSimulationFlag("all"); !ok || f != SimulateAll {
		t.Fatalf("ParseSimulationFlag(all) = %v, %v", f, ok)
	}
	if _, ok := ParseSimulationFlag("bogus"); ok {
		t.Fatal("ParseSimulationFlag(bogus) succeeded")
	}
}
