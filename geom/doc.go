// Package geom provides the 3D math used by scene queries and the propagation
// simulator.
//
// Vectors are go3d float64 [vec3.T] values wrapped in value-semantics helpers
// ([Add], [Sub], [Dot], ...) so call sites never have to take addresses of
// temporaries. [Transform] is an affine 4x4 matrix, [CoordinateSpace] is an
// orthonormal pose (listener or source), and [BVH] answers closest-hit and
// any-hit ray queries over an indexed triangle list.
package geom
