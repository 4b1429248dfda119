package accel

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/mathutil"
)

// DebugNode is one node of the median-split BVH the render graph keeps
// for the host-side visibility pre-pass (SPEC_FULL §3.7): a box-culling
// structure over TLAS instance bounds, independent of the hardware
// BLAS/TLAS the ray-traced passes use.
type DebugNode struct {
	Bounds    mathutil.AABB
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

type boundedItem struct {
	bounds mathutil.AABB
	index  int
}

// BuildDebugBVH recursively median-splits instanceBounds (one AABB per
// scene instance) along its largest-extent axis, producing a flat node
// array usable for frustum/occlusion culling before the G-buffer pass.
func BuildDebugBVH(instanceBounds []mathutil.AABB) []DebugNode {
	if len(instanceBounds) == 0 {
		return nil
	}
	items := make([]boundedItem, len(instanceBounds))
	for i, b := range instanceBounds {
		items[i] = boundedItem{bounds: b, index: i}
	}
	var nodes []DebugNode
	buildDebugBVHRecursive(items, &nodes)
	return nodes
}

func buildDebugBVHRecursive(items []boundedItem, nodes *[]DebugNode) int32 {
	idx := int32(len(*nodes))
	*nodes = append(*nodes, DebugNode{Left: -1, Right: -1, LeafFirst: -1, LeafCount: 0})

	bounds := items[0].bounds
	for _, it := range items[1:] {
		bounds = bounds.Union(it.bounds)
	}
	(*nodes)[idx].Bounds = bounds

	if len(items) == 1 {
		(*nodes)[idx].LeafFirst = int32(items[0].index)
		(*nodes)[idx].LeafCount = 1
		return idx
	}

	extent := bounds.Extent()
	axis := 0
	if extent.Y() > extent[axis] {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].bounds.Centroid()[axis] < items[j].bounds.Centroid()[axis]
	})

	mid := len(items) / 2
	(*nodes)[idx].Left = buildDebugBVHRecursive(items[:mid], nodes)
	(*nodes)[idx].Right = buildDebugBVHRecursive(items[mid:], nodes)
	return idx
}

// VisibleInstances walks the debug BVH, returning the indices of
// instances whose leaf bounds intersect the frustum planes.
func VisibleInstances(nodes []DebugNode, planes [6]mgl32.Vec4) []int {
	if len(nodes) == 0 {
		return nil
	}
	var out []int
	var walk func(i int32)
	walk = func(i int32) {
		if i < 0 {
			return
		}
		n := nodes[i]
		if !mathutil.AABBInFrustum(n.Bounds, planes) {
			return
		}
		if n.LeafCount == 1 {
			out = append(out, int(n.LeafFirst))
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(0)
	return out
}
