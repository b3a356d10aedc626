package scene

import (
	"fmt"
	"sync"
)

// Handle identifies a scene inside an Arena. The zero Handle is never
// issued.
type Handle uint32

// Arena owns scenes and resolves handles. Instanced meshes reference their
// sub-scenes through the arena, and the arena counts those references so a
// scene cannot be released while committed instances still use it.
type Arena struct {
	mu     sync.RWMutex
	scenes []*Scene
	refs   []int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// NewScene allocates an empty scene and returns it. Its handle is available
// through Scene.Handle.
func (a *Arena) NewScene() *Scene {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &Scene{arena: a}

	for i, slot := range a.scenes {
		if slot == nil {
			s.handle = Handle(i + 1)
			a.scenes[i] = s
			a.refs[i] = 0

			return s
		}
	}

	a.scenes = append(a.scenes, s)
	a.refs = append(a.refs, 0)
	s.handle = Handle(len(a.scenes))

	return s
}

// Scene resolves a handle.
func (a *Arena) Scene(h Handle) (*Scene, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.lookup(h)
	if s == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}

	return s, nil
}

// Release frees the slot of an unreferenced scene. The handle may be reused
// by a later NewScene.
func (a *Arena) Release(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lookup(h) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}

	if a.refs[h-1] > 0 {
		return fmt.Errorf("%w: %d references", ErrSceneInUse, a.refs[h-1])
	}

	a.scenes[h-1] = nil

	return nil
}

// RefCount returns the number of committed instances referencing h.
func (a *Arena) RefCount(h Handle) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.lookup(h) == nil {
		return 0
	}

	return a.refs[h-1]
}

func (a *Arena) lookup(h Handle) *Scene {
	if h == 0 || int(h) > len(a.scenes) {
		return nil
	}

	return a.scenes[h-1]
}

func (a *Arena) addRef(h Handle, delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lookup(h) != nil {
		a.refs[h-1] += delta
	}
}

// reaches reports whether target is reachable from h through committed
// instances, including h == target.
func (a *Arena) reaches(h, target Handle, visited map[Handle]bool) bool {
	if h == target {
		return true
	}

	if visited[h] {
		return false
	}
	visited[h] = true

	s, err := a.Scene(h)
	if err != nil {
		return false
	}

	s.mu.RLock()
	subs := make([]Handle, len(s.instances))
	for i, inst := range s.instances {
		subs[i] = inst.sub
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		if a.reaches(sub, target, visited) {
			return true
		}
	}

	return false
}
