package scene

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cwbudde/algo-spatial/geom"
)

type mutationKind int

const (
	addStatic mutationKind = iota
	removeStatic
	addInstanced
	removeInstanced
)

type mutation struct {
	kind     mutationKind
	static   *StaticMesh
	instance *InstancedMesh
}

// Scene aggregates static and instanced meshes. Mutations are queued and
// applied by Commit; queries see only committed state.
type Scene struct {
	arena  *Arena
	handle Handle

	// mu guards the committed state below. Commit holds it for writing.
	mu        sync.RWMutex
	statics   []*StaticMesh
	instances []*InstancedMesh
	subs      []*Scene
	version   uint64

	queueMu sync.Mutex
	queue   []mutation
}

// Stats summarizes the committed contents of a scene.
type Stats struct {
	StaticMeshes    int
	InstancedMeshes int
	Triangles       int
	Version         uint64
}

// Handle returns the arena handle of the scene.
func (s *Scene) Handle() Handle { return s.handle }

// Arena returns the arena that owns the scene.
func (s *Scene) Arena() *Arena { return s.arena }

// AddStaticMesh queues m for addition.
func (s *Scene) AddStaticMesh(m *StaticMesh) { s.enqueue(mutation{kind: addStatic, static: m}) }

// RemoveStaticMesh queues m for removal.
func (s *Scene) RemoveStaticMesh(m *StaticMesh) { s.enqueue(mutation{kind: removeStatic, static: m}) }

// AddInstancedMesh queues m for addition.
func (s *Scene) AddInstancedMesh(m *InstancedMesh) {
	s.enqueue(mutation{kind: addInstanced, instance: m})
}

// RemoveInstancedMesh queues m for removal.
func (s *Scene) RemoveInstancedMesh(m *InstancedMesh) {
	s.enqueue(mutation{kind: removeInstanced, instance: m})
}

func (s *Scene) enqueue(m mutation) {
	s.queueMu.Lock()
	s.queue = append(s.queue, m)
	s.queueMu.Unlock()
}

// Commit applies all queued mutations and pending instance transforms
// atomically and increments the change version. On error nothing is applied
// and the queue is kept.
func (s *Scene) Commit() error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	for _, m := range s.queue {
		if m.kind != addInstanced {
			continue
		}

		if _, err := s.arena.Scene(m.instance.sub); err != nil {
			return fmt.Errorf("scene: commit: %w", err)
		}

		if s.arena.reaches(m.instance.sub, s.handle, map[Handle]bool{}) {
			return fmt.Errorf("%w: scene %d via %d", ErrInstanceCycle, s.handle, m.instance.sub)
		}
	}

	var claimed []*InstancedMesh
	for _, m := range s.queue {
		if m.kind != addInstanced {
			continue
		}

		fresh, ok := m.instance.claim(s.handle)
		if !ok {
			for _, c := range claimed {
				c.release(s.handle)
			}

			return fmt.Errorf("%w: scene %d", ErrInstanceOwned, s.handle)
		}

		if fresh {
			claimed = append(claimed, m.instance)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*InstancedMesh
	for _, m := range s.queue {
		switch m.kind {
		case addStatic:
			if !slices.Contains(s.statics, m.static) {
				s.statics = append(s.statics, m.static)
			}
		case removeStatic:
			if i := slices.Index(s.statics, m.static); i >= 0 {
				s.statics = slices.Delete(s.statics, i, i+1)
			}
		case addInstanced:
			if !slices.Contains(s.instances, m.instance) {
				s.instances = append(s.instances, m.instance)
				s.arena.addRef(m.instance.sub, 1)
			}
		case removeInstanced:
			if i := slices.Index(s.instances, m.instance); i >= 0 {
				s.instances = slices.Delete(s.instances, i, i+1)
				s.arena.addRef(m.instance.sub, -1)
			}

			removed = append(removed, m.instance)
		}
	}

	for _, inst := range removed {
		if !slices.Contains(s.instances, inst) {
			inst.release(s.handle)
		}
	}

	s.queue = s.queue[:0]

	s.subs = s.subs[:0]
	for _, inst := range s.instances {
		inst.applyPending()
		// Validated above or at an earlier commit; Release refuses
		// referenced scenes.
		sub, _ := s.arena.Scene(inst.sub)
		s.subs = append(s.subs, sub)
	}

	s.version++

	return nil
}

// ChangeVersion returns the number of commits applied so far.
func (s *Scene) ChangeVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Stats returns counts for the committed state.
func (s *Scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		StaticMeshes:    len(s.statics),
		InstancedMeshes: len(s.instances),
		Version:         s.version,
	}
	for _, m := range s.statics {
		st.Triangles += m.NumTriangles()
	}

	return st
}

// ClosestHit returns the nearest committed intersection within
// (minDist, maxDist). ObjectIndex counts static meshes first, then
// instanced meshes.
func (s *Scene) ClosestHit(r geom.Ray, minDist, maxDist float64) (Hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best Hit
	found := false

	for i, m := range s.statics {
		if hit, ok := m.ClosestHit(r, minDist, maxDist); ok {
			hit.ObjectIndex = i
			best, found = hit, true
			maxDist = hit.Distance
		}
	}

	for i, inst := range s.instances {
		if hit, ok := inst.closestHit(s.subs[i], r, minDist, maxDist); ok {
			hit.ObjectIndex = len(s.statics) + i
			best, found = hit, true
			maxDist = hit.Distance
		}
	}

	return best, found
}

// AnyHit reports whether any committed geometry intersects r within
// (minDist, maxDist).
func (s *Scene) AnyHit(r geom.Ray, minDist, maxDist float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.statics {
		if m.AnyHit(r, minDist, maxDist) {
			return true
		}
	}

	for i, inst := range s.instances {
		if inst.anyHit(s.subs[i], r, minDist, maxDist) {
			return true
		}
	}

	return false
}

// IsOccluded reports whether the open segment between from and to is
// blocked.
func (s *Scene) IsOccluded(from, to geom.Vector3) bool {
	r, dist := geom.NewRay(from, to)
	if dist == 0 {
		return false
	}

	return s.AnyHit(r, 0, dist)
}
