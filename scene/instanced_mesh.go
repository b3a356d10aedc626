package scene

import (
	"sync"

	"github.com/cwbudde/algo-spatial/geom"
)

// InstancedMesh places the committed contents of another scene into the
// world through an affine transform. An instance belongs to at most one
// scene at a time; committing it into a second scene fails with
// [ErrInstanceOwned] until the first scene has committed its removal.
type InstancedMesh struct {
	sub Handle

	mu      sync.Mutex
	pending geom.Transform
	changed bool
	owner   Handle
	owned   bool

	// Committed state. Writes hold both mu and the owning scene's write
	// lock, so ray queries under the scene's read lock need no mu.
	transform geom.Transform
	inverse   geom.Transform
}

// NewInstancedMesh creates an instance of the scene identified by sub.
func NewInstancedMesh(sub Handle, transform geom.Transform) (*InstancedMesh, error) {
	inv, ok := transform.Inverse()
	if !ok {
		return nil, ErrSingularTransform
	}

	return &InstancedMesh{
		sub:       sub,
		pending:   transform,
		transform: transform,
		inverse:   inv,
	}, nil
}

// SubScene returns the handle of the instanced scene.
func (m *InstancedMesh) SubScene() Handle { return m.sub }

// SetTransform queues a new world transform. It takes effect at the next
// Commit of the scene that holds this instance.
func (m *InstancedMesh) SetTransform(t geom.Transform) error {
	if _, ok := t.Inverse(); !ok {
		return ErrSingularTransform
	}

	m.mu.Lock()
	m.pending = t
	m.changed = true
	m.mu.Unlock()

	return nil
}

// Changed reports whether a transform update is waiting for Commit.
func (m *InstancedMesh) Changed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.changed
}

// Transform returns the committed transform.
func (m *InstancedMesh) Transform() geom.Transform {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.transform
}

// claim makes scene h the owner. fresh is false when h already owned m.
func (m *InstancedMesh) claim(h Handle) (fresh, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case !m.owned:
		m.owner, m.owned = h, true
		return true, true
	case m.owner == h:
		return false, true
	default:
		return false, false
	}
}

func (m *InstancedMesh) release(h Handle) {
	m.mu.Lock()
	if m.owned && m.owner == h {
		m.owned = false
	}
	m.mu.Unlock()
}

// applyPending promotes a queued transform. The caller holds the scene's
// write lock.
func (m *InstancedMesh) applyPending() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.changed {
		return
	}

	// SetTransform already rejected singular matrices.
	inv, _ := m.pending.Inverse()
	m.transform = m.pending
	m.inverse = inv
	m.changed = false
}

// toLocal maps a world ray into sub-scene space. The direction is not
// renormalized so hit distances stay in world units.
func (m *InstancedMesh) toLocal(r geom.Ray) geom.Ray {
	return geom.Ray{
		Origin:    m.inverse.TransformPoint(r.Origin),
		Direction: m.inverse.TransformDirection(r.Direction),
	}
}

func (m *InstancedMesh) closestHit(sub *Scene, r geom.Ray, minDist, maxDist float64) (Hit, bool) {
	hit, ok := sub.ClosestHit(m.toLocal(r), minDist, maxDist)
	if !ok {
		return Hit{}, false
	}

	hit.Normal = m.inverse.TransformNormal(hit.Normal)

	return hit, true
}

func (m *InstancedMesh) anyHit(sub *Scene, r geom.Ray, minDist, maxDist float64) bool {
	return sub.AnyHit(m.toLocal(r), minDist, maxDist)
}
