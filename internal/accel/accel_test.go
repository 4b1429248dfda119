package accel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/mathutil"
)

func TestAssembleBLASGeometryPicksDeformableHint(t *testing.T) {
	refs := []GeometryRef{
		{VertexBaseIndex: 0, IndexBaseIndex: 0, NumVertices: 8, NumIndices: 36, IsUpdatable: false},
		{VertexBaseIndex: 32, IndexBaseIndex: 64, NumVertices: 8, NumIndices: 36, IsUpdatable: true},
	}
	descs, hint := AssembleBLASGeometry(refs, 12, 2)
	if hint != gpu.BuildHintDeformable {
		t.Fatalf("expected deformable hint when any geometry is updatable, got %v", hint)
	}
	if len(descs) != 2 {
		t.Fatalf("expected 2 geometry descs, got %d", len(descs))
	}
	if descs[1].VertexBufferOffset != 32*12 {
		t.Fatalf("unexpected vertex buffer offset: %d", descs[1].VertexBufferOffset)
	}
}

func TestAssembleBLASGeometryFastTraceWhenNoneUpdatable(t *testing.T) {
	refs := []GeometryRef{{NumVertices: 3, NumIndices: 3}}
	_, hint := AssembleBLASGeometry(refs, 12, 2)
	if hint != gpu.BuildHintFastTrace {
		t.Fatalf("expected fast-trace hint, got %v", hint)
	}
}

func TestAssembleTLASInstance(t *testing.T) {
	inst := AssembleTLASInstance(gpu.AccelHandle(5), mgl32.Ident4(), 2, 7)
	if inst.BLAS != 5 || inst.HitGroupOffset != 2 || inst.InstanceID != 7 || inst.Mask != 0xff {
		t.Fatalf("unexpected instance desc: %+v", inst)
	}
	identityRow := [12]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0}
	if inst.Transform3x4 != identityRow {
		t.Fatalf("Transform3x4 = %v, want identity rows %v", inst.Transform3x4, identityRow)
	}
}

func TestBuildDebugBVHSingleLeaf(t *testing.T) {
	bounds := []mathutil.AABB{{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}}
	nodes := BuildDebugBVH(bounds)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node for 1 instance, got %d", len(nodes))
	}
	if nodes[0].LeafCount != 1 || nodes[0].LeafFirst != 0 {
		t.Fatalf("expected single-leaf root, got %+v", nodes[0])
	}
}

func TestBuildDebugBVHMultipleAndVisibility(t *testing.T) {
	bounds := []mathutil.AABB{
		{Min: mgl32.Vec3{-10, -10, -10}, Max: mgl32.Vec3{-9, -9, -9}},
		{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}},
		{Min: mgl32.Vec3{5, 5, 5}, Max: mgl32.Vec3{6, 6, 6}},
	}
	nodes := BuildDebugBVH(bounds)
	if len(nodes) != 2*len(bounds)-1 {
		t.Fatalf("expected %d nodes for %d leaves, got %d", 2*len(bounds)-1, len(bounds), len(nodes))
	}

	// A box-shaped frustum spanning [-2,2] on each axis keeps only the
	// instance at the origin; the far-away instance must be culled.
	planes := [6]mgl32.Vec4{
		{1, 0, 0, 2}, {-1, 0, 0, 2},
		{0, 1, 0, 2}, {0, -1, 0, 2},
		{0, 0, 1, 2}, {0, 0, -1, 2},
	}
	visible := VisibleInstances(nodes, planes)
	if len(visible) == 0 {
		t.Fatal("expected at least the near instance to be visible")
	}
	for _, idx := range visible {
		if idx == 0 {
			t.Fatal("the far-away instance at (-10,-10,-10) must be culled")
		}
	}
}
