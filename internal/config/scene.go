package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
)

// ErrInvalidScene is returned for scene descriptions that cannot be built.
var ErrInvalidScene = errors.New("config: invalid scene")

// SceneFile describes the geometry, poses and source motion of a render.
type SceneFile struct {
	Materials map[string]MaterialConfig `yaml:"materials"`
	Meshes    []MeshConfig              `yaml:"meshes"`
	Instances []InstanceConfig          `yaml:"instances"`
	Source    PoseConfig                `yaml:"source"`
	Listener  PoseConfig                `yaml:"listener"`
	// Path moves the source over time. Between keyframes the position and
	// ahead vector are interpolated linearly.
	Path []Keyframe `yaml:"path"`
}

// MaterialConfig mirrors scene.Material with per-band arrays.
type MaterialConfig struct {
	Absorption   [scene.NumBands]float64 `yaml:"absorption"`
	Scattering   float64                 `yaml:"scattering"`
	Transmission [scene.NumBands]float64 `yaml:"transmission"`
}

// MeshConfig is either inline triangles or an axis-aligned box. Prototype
// meshes only appear through instances.
type MeshConfig struct {
	Name      string       `yaml:"name"`
	Material  string       `yaml:"material"`
	Prototype bool         `yaml:"prototype"`
	Vertices  [][3]float64 `yaml:"vertices"`
	Triangles [][3]int     `yaml:"triangles"`
	Box       *BoxConfig   `yaml:"box"`
}

// BoxConfig is a closed axis-aligned box.
type BoxConfig struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// InstanceConfig places a mesh with scale, then rotation, then
// translation.
type InstanceConfig struct {
	Mesh      string     `yaml:"mesh"`
	Translate [3]float64 `yaml:"translate"`
	Axis      [3]float64 `yaml:"axis"`
	Degrees   float64    `yaml:"degrees"`
	Scale     [3]float64 `yaml:"scale"` // zero means 1
}

// PoseConfig is a position with optional ahead and up vectors.
type PoseConfig struct {
	Position [3]float64 `yaml:"position"`
	Ahead    [3]float64 `yaml:"ahead"`
	Up       [3]float64 `yaml:"up"`
}

// Keyframe is a source pose at a time in seconds.
type Keyframe struct {
	Time     float64    `yaml:"time"`
	Position [3]float64 `yaml:"position"`
	Ahead    [3]float64 `yaml:"ahead"`
}

// LoadScene reads and validates a scene description.
func LoadScene(path string) (*SceneFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s SceneFile
	if err := decode(f, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidScene, path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks references and keyframe order.
func (s *SceneFile) Validate() error {
	names := make(map[string]bool, len(s.Meshes))

	for i, m := range s.Meshes {
		if m.Name == "" {
			return fmt.Errorf("%w: mesh %d has no name", ErrInvalidScene, i)
		}
		if names[m.Name] {
			return fmt.Errorf("%w: duplicate mesh %q", ErrInvalidScene, m.Name)
		}
		names[m.Name] = true

		if m.Material != "" {
			if _, ok := s.Materials[m.Material]; !ok {
				return fmt.Errorf("%w: mesh %q uses unknown material %q", ErrInvalidScene, m.Name, m.Material)
			}
		}

		if (m.Box == nil) == (len(m.Triangles) == 0) {
			return fmt.Errorf("%w: mesh %q needs either a box or triangles", ErrInvalidScene, m.Name)
		}
	}

	for i, inst := range s.Instances {
		if !names[inst.Mesh] {
			return fmt.Errorf("%w: instance %d references unknown mesh %q", ErrInvalidScene, i, inst.Mesh)
		}
	}

	for i := 1; i < len(s.Path); i++ {
		if !(s.Path[i].Time > s.Path[i-1].Time) {
			return fmt.Errorf("%w: keyframe times must increase at %d", ErrInvalidScene, i)
		}
	}

	return nil
}

// Build creates the scene in arena and commits it. Each instanced mesh
// gets its own committed sub-scene.
func (s *SceneFile) Build(arena *scene.Arena) (*scene.Scene, error) {
	root := arena.NewScene()
	meshes := make(map[string]*scene.StaticMesh, len(s.Meshes))

	for _, mc := range s.Meshes {
		m, err := s.buildMesh(mc)
		if err != nil {
			return nil, err
		}
		meshes[mc.Name] = m

		if !mc.Prototype {
			root.AddStaticMesh(m)
		}
	}

	subs := make(map[string]*scene.Scene)

	for i, inst := range s.Instances {
		sub, ok := subs[inst.Mesh]
		if !ok {
			sub = arena.NewScene()
			sub.AddStaticMesh(meshes[inst.Mesh])
			if err := sub.Commit(); err != nil {
				return nil, err
			}
			subs[inst.Mesh] = sub
		}

		im, err := scene.NewInstancedMesh(sub.Handle(), inst.Transform())
		if err != nil {
			return nil, fmt.Errorf("%w: instance %d: %w", ErrInvalidScene, i, err)
		}
		root.AddInstancedMesh(im)
	}

	if err := root.Commit(); err != nil {
		return nil, err
	}

	return root, nil
}

func (s *SceneFile) buildMesh(mc MeshConfig) (*scene.StaticMesh, error) {
	mat := scene.DefaultMaterial
	if c, ok := s.Materials[mc.Material]; ok {
		mat = scene.Material(c)
	}

	var (
		verts []geom.Vector3
		tris  []geom.Triangle
	)

	if mc.Box != nil {
		verts, tris = box(mc.Box.Min, mc.Box.Max)
	} else {
		for _, v := range mc.Vertices {
			verts = append(verts, geom.Vector3(v))
		}
		for _, t := range mc.Triangles {
			tris = append(tris, geom.Triangle(t))
		}
	}

	m, err := scene.NewStaticMesh(verts, tris, make([]int, len(tris)), []scene.Material{mat})
	if err != nil {
		return nil, fmt.Errorf("%w: mesh %q: %w", ErrInvalidScene, mc.Name, err)
	}

	return m, nil
}

// box returns the eight corners and twelve triangles of an axis-aligned
// box.
func box(lo, hi [3]float64) ([]geom.Vector3, []geom.Triangle) {
	verts := make([]geom.Vector3, 0, 8)
	for i := range 8 {
		v := geom.Vector3(lo)
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				v[axis] = hi[axis]
			}
		}
		verts = append(verts, v)
	}

	// Corner index bits are x, y, z.
	tris := []geom.Triangle{
		{0, 2, 3}, {0, 3, 1}, // z min
		{4, 5, 7}, {4, 7, 6}, // z max
		{0, 1, 5}, {0, 5, 4}, // y min
		{2, 6, 7}, {2, 7, 3}, // y max
		{0, 4, 6}, {0, 6, 2}, // x min
		{1, 3, 7}, {1, 7, 5}, // x max
	}

	return verts, tris
}

// Transform returns the instance transform.
func (i InstanceConfig) Transform() geom.Transform {
	scale := geom.Vector3(i.Scale)
	for a := range scale {
		if scale[a] == 0 {
			scale[a] = 1
		}
	}

	rot := geom.Rotation(geom.Vector3(i.Axis), i.Degrees*math.Pi/180)

	return geom.Translation(geom.Vector3(i.Translate)).Mul(rot).Mul(geom.Scaling(scale))
}

// CoordinateSpace returns the pose. A zero ahead vector faces -Z and a
// zero up vector uses world +Y.
func (p PoseConfig) CoordinateSpace() geom.CoordinateSpace {
	up := geom.Vector3(p.Up)
	if geom.IsZero(up) {
		up = geom.Vec(0, 1, 0)
	}

	return geom.NewCoordinateSpace(geom.Vector3(p.Ahead), up, geom.Vector3(p.Position))
}

// SourceAt returns the source pose at time t. Without keyframes the
// static source pose is used; outside the keyframe range the nearest
// keyframe holds.
func (s *SceneFile) SourceAt(t float64) geom.CoordinateSpace {
	if len(s.Path) == 0 {
		return s.Source.CoordinateSpace()
	}

	pose := func(pos, ahead geom.Vector3) geom.CoordinateSpace {
		if geom.IsZero(ahead) {
			ahead = geom.Vector3(s.Source.Ahead)
		}
		return geom.NewCoordinateSpaceFromVector(ahead, pos)
	}

	i, found := slices.BinarySearchFunc(s.Path, t, func(k Keyframe, t float64) int {
		switch {
		case k.Time < t:
			return -1
		case k.Time > t:
			return 1
		default:
			return 0
		}
	})

	switch {
	case found:
		k := s.Path[i]
		return pose(geom.Vector3(k.Position), geom.Vector3(k.Ahead))
	case i == 0:
		k := s.Path[0]
		return pose(geom.Vector3(k.Position), geom.Vector3(k.Ahead))
	case i == len(s.Path):
		k := s.Path[i-1]
		return pose(geom.Vector3(k.Position), geom.Vector3(k.Ahead))
	}

	a, b := s.Path[i-1], s.Path[i]
	f := (t - a.Time) / (b.Time - a.Time)

	return pose(
		geom.Lerp(geom.Vector3(a.Position), geom.Vector3(b.Position), f),
		geom.Lerp(geom.Vector3(a.Ahead), geom.Vector3(b.Ahead), f),
	)
}

// Duration returns the time of the last keyframe, or 0 without a path.
func (s *SceneFile) Duration() float64 {
	if len(s.Path) == 0 {
		return 0
	}

	return s.Path[len(s.Path)-1].Time
}
