package scene

import "errors"

// Construction and commit errors.
var (
	ErrNoVertices        = errors.New("scene: mesh has no vertices")
	ErrNoTriangles       = errors.New("scene: mesh has no triangles")
	ErrVertexIndex       = errors.New("scene: triangle vertex index out of range")
	ErrMaterialIndex     = errors.New("scene: material index out of range")
	ErrMaterialCount     = errors.New("scene: material index count does not match triangle count")
	ErrNoMaterials       = errors.New("scene: mesh has no materials")
	ErrInvalidMaterial   = errors.New("scene: invalid material")
	ErrInvalidVertex     = errors.New("scene: vertex is not finite")
	ErrSingularTransform = errors.New("scene: instance transform is singular")
	ErrUnknownHandle     = errors.New("scene: unknown scene handle")
	ErrInstanceCycle     = errors.New("scene: instanced mesh would create a cycle")
	ErrSceneInUse        = errors.New("scene: scene is referenced by an instanced mesh")
	ErrInstanceOwned     = errors.New("scene: instanced mesh belongs to another scene")
)
