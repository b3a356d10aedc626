package geom

import (
	"math"
	"sort"
)

const bvhLeafSize = 4

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vector3
	Max Vector3
}

func emptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Vector3{inf, inf, inf}, Max: Vector3{-inf, -inf, -inf}}
}

func (b *AABB) extend(p Vector3) {
	for i := range 3 {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

func (b *AABB) union(o AABB) {
	b.extend(o.Min)
	b.extend(o.Max)
}

// intersects runs the slab test against the parameter interval (tMin, tMax).
func (b AABB) intersects(r Ray, invDir Vector3, tMin, tMax float64) bool {
	for i := range 3 {
		t0 := (b.Min[i] - r.Origin[i]) * invDir[i]
		t1 := (b.Max[i] - r.Origin[i]) * invDir[i]
		if invDir[i] < 0 {
			t0, t1 = t1, t0
		}
		// NaN from 0*Inf means the ray lies in the slab plane; keep the interval.
		if !math.IsNaN(t0) && t0 > tMin {
			tMin = t0
		}
		if !math.IsNaN(t1) && t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}

	return true
}

// bvhNode is a leaf when count > 0; then first indexes into BVH.order.
// Interior nodes store the left child at index+1 and the right at first.
type bvhNode struct {
	bounds AABB
	first  int
	count  int
}

// BVH is a bounding volume hierarchy over an indexed triangle list. It is
// immutable after construction and safe for concurrent queries.
type BVH struct {
	vertices  []Vector3
	triangles []Triangle
	order     []int
	nodes     []bvhNode
}

// NewBVH builds a hierarchy over triangles referencing vertices. The slices
// are retained, not copied; callers must not mutate them afterwards.
func NewBVH(vertices []Vector3, triangles []Triangle) *BVH {
	b := &BVH{
		vertices:  vertices,
		triangles: triangles,
		order:     make([]int, len(triangles)),
		nodes:     make([]bvhNode, 0, 2*len(triangles)/bvhLeafSize+1),
	}

	centroids := make([]Vector3, len(triangles))
	bounds := make([]AABB, len(triangles))

	for i, tri := range triangles {
		b.order[i] = i
		bb := emptyAABB()
		for _, vi := range tri {
			bb.extend(vertices[vi])
		}
		bounds[i] = bb
		centroids[i] = Scale(Add(bb.Min, bb.Max), 0.5)
	}

	if len(triangles) > 0 {
		b.build(0, len(triangles), centroids, bounds)
	}

	return b
}

func (b *BVH) build(start, end int, centroids []Vector3, bounds []AABB) int {
	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{})

	box := emptyAABB()
	cbox := emptyAABB()
	for _, ti := range b.order[start:end] {
		box.union(bounds[ti])
		cbox.extend(centroids[ti])
	}

	n := end - start
	if n <= bvhLeafSize {
		b.nodes[nodeIdx] = bvhNode{bounds: box, first: start, count: n}
		return nodeIdx
	}

	axis := 0
	extent := Sub(cbox.Max, cbox.Min)
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	if extent[axis] == 0 {
		b.nodes[nodeIdx] = bvhNode{bounds: box, first: start, count: n}
		return nodeIdx
	}

	part := b.order[start:end]
	sort.Slice(part, func(i, j int) bool {
		return centroids[part[i]][axis] < centroids[part[j]][axis]
	})

	mid := start + n/2
	b.build(start, mid, centroids, bounds)
	right := b.build(mid, end, centroids, bounds)

	b.nodes[nodeIdx] = bvhNode{bounds: box, first: right}

	return nodeIdx
}

// NumTriangles returns the number of indexed triangles.
func (b *BVH) NumTriangles() int {
	return len(b.triangles)
}

// Bounds returns the bounding box of all triangles.
func (b *BVH) Bounds() AABB {
	if len(b.nodes) == 0 {
		return AABB{}
	}

	return b.nodes[0].bounds
}

// ClosestHit returns the nearest intersection parameter in (tMin, tMax) and
// the index of the triangle hit.
func (b *BVH) ClosestHit(r Ray, tMin, tMax float64) (t float64, triangle int, ok bool) {
	triangle = -1
	b.traverse(r, tMin, tMax, func(ti int, limit float64) (float64, bool) {
		tri := b.triangles[ti]
		hitT, hit := IntersectTriangle(r, b.vertices[tri[0]], b.vertices[tri[1]], b.vertices[tri[2]], tMin, limit)
		if !hit {
			return limit, false
		}
		t, triangle, ok = hitT, ti, true

		return hitT, false
	})

	return t, triangle, ok
}

// AnyHit reports whether any triangle intersects r within (tMin, tMax).
func (b *BVH) AnyHit(r Ray, tMin, tMax float64) bool {
	found := false
	b.traverse(r, tMin, tMax, func(ti int, limit float64) (float64, bool) {
		tri := b.triangles[ti]
		if _, hit := IntersectTriangle(r, b.vertices[tri[0]], b.vertices[tri[1]], b.vertices[tri[2]], tMin, limit); hit {
			found = true
			return limit, true
		}

		return limit, false
	})

	return found
}

// traverse walks nodes whose bounds overlap the current interval. visit
// returns the new upper bound and whether to stop.
func (b *BVH) traverse(r Ray, tMin, tMax float64, visit func(tri int, limit float64) (float64, bool)) {
	if len(b.nodes) == 0 {
		return
	}

	invDir := Vector3{1 / r.Direction[0], 1 / r.Direction[1], 1 / r.Direction[2]}

	// Median splits keep the depth logarithmic, so a fixed stack suffices.
	var stack [64]int
	sp := 1

	limit := tMax
	for sp > 0 {
		sp--
		idx := stack[sp]
		node := &b.nodes[idx]
		if !node.bounds.intersects(r, invDir, tMin, limit) {
			continue
		}

		if node.count > 0 {
			for _, ti := range b.order[node.first : node.first+node.count] {
				var stop bool
				limit, stop = visit(ti, limit)
				if stop {
					return
				}
			}

			continue
		}

		stack[sp] = node.first
		stack[sp+1] = idx + 1
		sp += 2
	}
}
