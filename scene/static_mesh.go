package scene

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/geom"
)

// Hit is the transient result of a ray query.
type Hit struct {
	Distance      float64
	TriangleIndex int
	// ObjectIndex is the index of the hit object in the committed static
	// or instanced list of the scene that answered the query.
	ObjectIndex int
	Material    Material
	Normal      geom.Vector3
}

// StaticMesh is rigid triangle geometry. It is immutable after construction.
type StaticMesh struct {
	vertices        []geom.Vector3
	triangles       []geom.Triangle
	materialIndices []int
	materials       []Material
	normals         []geom.Vector3
	bvh             *geom.BVH
}

// NewStaticMesh validates host geometry and builds its acceleration
// structure. The input slices are copied.
func NewStaticMesh(vertices []geom.Vector3, triangles []geom.Triangle, materialIndices []int, materials []Material) (*StaticMesh, error) {
	if len(vertices) == 0 {
		return nil, ErrNoVertices
	}

	if len(triangles) == 0 {
		return nil, ErrNoTriangles
	}

	if len(materials) == 0 {
		return nil, ErrNoMaterials
	}

	if len(materialIndices) != len(triangles) {
		return nil, fmt.Errorf("%w: %d indices for %d triangles", ErrMaterialCount, len(materialIndices), len(triangles))
	}

	for i, v := range vertices {
		if !geom.IsFinite(v) {
			return nil, fmt.Errorf("%w: vertex %d", ErrInvalidVertex, i)
		}
	}

	for i, m := range materials {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
	}

	for i, tri := range triangles {
		for _, vi := range tri {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrVertexIndex, i, vi, len(vertices))
			}
		}

		if mi := materialIndices[i]; mi < 0 || mi >= len(materials) {
			return nil, fmt.Errorf("%w: triangle %d references material %d of %d", ErrMaterialIndex, i, mi, len(materials))
		}
	}

	m := &StaticMesh{
		vertices:        append([]geom.Vector3(nil), vertices...),
		triangles:       append([]geom.Triangle(nil), triangles...),
		materialIndices: append([]int(nil), materialIndices...),
		materials:       append([]Material(nil), materials...),
		normals:         make([]geom.Vector3, len(triangles)),
	}

	for i, tri := range m.triangles {
		m.normals[i] = geom.TriangleNormal(m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]])
	}

	m.bvh = geom.NewBVH(m.vertices, m.triangles)

	return m, nil
}

// NumVertices returns the vertex count.
func (m *StaticMesh) NumVertices() int { return len(m.vertices) }

// NumTriangles returns the triangle count.
func (m *StaticMesh) NumTriangles() int { return len(m.triangles) }

// Bounds returns the mesh bounding box.
func (m *StaticMesh) Bounds() geom.AABB { return m.bvh.Bounds() }

// ClosestHit returns the nearest intersection within (minDist, maxDist).
func (m *StaticMesh) ClosestHit(r geom.Ray, minDist, maxDist float64) (Hit, bool) {
	t, tri, ok := m.bvh.ClosestHit(r, minDist, maxDist)
	if !ok {
		return Hit{}, false
	}

	return Hit{
		Distance:      t,
		TriangleIndex: tri,
		Material:      m.materials[m.materialIndices[tri]],
		Normal:        m.normals[tri],
	}, true
}

// AnyHit reports whether anything intersects r within (minDist, maxDist).
func (m *StaticMesh) AnyHit(r geom.Ray, minDist, maxDist float64) bool {
	return m.bvh.AnyHit(r, minDist, maxDist)
}
