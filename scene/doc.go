// Package scene models the acoustic geometry queried by the propagation
// simulator.
//
// A [StaticMesh] is rigid triangle geometry with one [Material] per triangle.
// An [InstancedMesh] places a shared sub-scene in the world through a
// transform. A [Scene] aggregates both; additions, removals and transform
// updates are queued and only become visible after [Scene.Commit], so ray
// queries always observe a stable snapshot.
//
// Scenes live in an [Arena] and refer to each other by [Handle], which keeps
// the ownership graph acyclic: an instanced mesh stores the handle of its
// sub-scene, never a pointer, and many instances may share one sub-scene.
package scene
