package scene

import (
	"context"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/asset"
	"github.com/haldor3d/hwrt/internal/gpu/fakegpu"
	"github.com/haldor3d/hwrt/internal/material"
	"github.com/haldor3d/hwrt/internal/mathutil"
	"github.com/haldor3d/hwrt/internal/texture"
)

type fakeImporter struct {
	scenes map[string]*asset.ImportedScene
}

func (f *fakeImporter) ReadScene(path string) (*asset.ImportedScene, bool) {
	s, ok := f.scenes[path]
	return s, ok
}

func unitCubeScene() *asset.ImportedScene {
	verts := make([]asset.Vertex, 8)
	for i := range verts {
		x := float32((i & 1))
		y := float32((i >> 1) & 1)
		z := float32((i >> 2) & 1)
		verts[i] = asset.Vertex{Position: mgl32.Vec3{x, y, z}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 0}}
	}
	faces := []asset.Face{
		{0, 1, 3, 2}, {4, 6, 7, 5}, {0, 4, 5, 1},
		{2, 3, 7, 6}, {0, 2, 6, 4}, {1, 5, 7, 3},
	}
	mesh := asset.SourceMesh{Vertices: verts, Faces: faces, MaterialID: 0}
	mat := material.Source{
		Diffuse:   material.Channel3{Constant: [3]float32{0.5, 0.5, 0.5}},
		Specular:  material.Channel3{Constant: [3]float32{0.1, 0.1, 0.1}},
		Roughness: material.Channel1{Constant: 0.8},
		Emission:  material.Channel3{Constant: [3]float32{0, 0, 0}},
	}
	return &asset.ImportedScene{Meshes: []asset.SourceMesh{mesh}, Materials: []material.Source{mat}}
}

func newTestResource(t *testing.T, importer asset.Importer) *Resource {
	t.Helper()
	dev := fakegpu.New()
	pool, err := texture.New(dev, func(string) (image.Image, error) { panic("no textures expected") })
	if err != nil {
		t.Fatalf("texture.New: %v", err)
	}
	res, err := New(dev, importer, pool, DefaultLimits())
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return res
}

func TestAddGeometriesPackingSoundness(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{"cube.obj": unitCubeScene()}}
	res := newTestResource(t, importer)

	rng, err := res.AddGeometries(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("AddGeometries: %v", err)
	}
	if rng.Len() != 1 {
		t.Fatalf("expected 1 geometry from a single-mesh cube, got %d", rng.Len())
	}

	g := res.Geometry(rng.Begin)
	if g.VertexBaseIndex%mathutil.GeometryBaseAlignment != 0 {
		t.Fatalf("VertexBaseIndex %d not 32-aligned", g.VertexBaseIndex)
	}
	if g.IndexBaseIndex%mathutil.GeometryBaseAlignment != 0 {
		t.Fatalf("IndexBaseIndex %d not 32-aligned", g.IndexBaseIndex)
	}
	if g.NumVertices != 8 || g.NumIndices != 36 {
		t.Fatalf("unexpected geometry counts: verts=%d indices=%d", g.NumVertices, g.NumIndices)
	}
}

func TestAddGeometriesZeroEmissionMapsToReservedIndex(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{"cube.obj": unitCubeScene()}}
	res := newTestResource(t, importer)
	rng, err := res.AddGeometries(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("AddGeometries: %v", err)
	}
	g := res.Geometry(rng.Begin)
	if g.EmissionIndex != 0 {
		t.Fatalf("expected reserved emission index 0 for a zero-constant emitter, got %d", g.EmissionIndex)
	}
}

func TestNewReservesBlackMaterialAndEmissionAtIndexZero(t *testing.T) {
	res := newTestResource(t, &fakeImporter{scenes: map[string]*asset.ImportedScene{}})

	if len(res.materials) != 1 || len(res.emissions) != 1 {
		t.Fatalf("expected exactly one reserved material/emission before any geometry is added, got %d/%d", len(res.materials), len(res.emissions))
	}
	r, g, b := material.DecodeConstant3(res.materials[0].Diffuse)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("reserved material 0 diffuse must be black, got (%v,%v,%v)", r, g, b)
	}
	r, g, b = material.DecodeConstant3(res.materials[0].Specular)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("reserved material 0 specular must be black, got (%v,%v,%v)", r, g, b)
	}
	r, g, b = material.DecodeConstant3(res.emissions[0].Emission)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("reserved emission 0 must be black, got (%v,%v,%v)", r, g, b)
	}
}

func TestAddGeometriesFirstRealMaterialStartsAtIndexOne(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{"cube.obj": unitCubeScene()}}
	res := newTestResource(t, importer)

	rng, err := res.AddGeometries(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("AddGeometries: %v", err)
	}
	g := res.Geometry(rng.Begin)
	if g.MaterialIndex != 1 {
		t.Fatalf("expected first real material to occupy index 1 (index 0 is the reserved black fallback), got %d", g.MaterialIndex)
	}
}

func TestCommitEmptySceneProducesNoBLASesOrInstances(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{}}
	res := newTestResource(t, importer)

	if err := res.Commit(context.Background(), SceneDesc{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.BLASCount() != 0 {
		t.Fatalf("expected 0 BLASes for empty scene, got %d", res.BLASCount())
	}
}

func TestCommitSingleCubeSingleInstance(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{"cube.obj": unitCubeScene()}}
	res := newTestResource(t, importer)

	rng, err := res.AddGeometries(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("AddGeometries: %v", err)
	}
	baseID := res.AddBaseInstance(rng)

	desc := SceneDesc{Instances: []SceneInstance{
		{BaseInstanceID: baseID, HitGroupID: 0, Transform: mgl32.Ident4()},
	}}
	if err := res.Commit(context.Background(), desc); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(res.GeometryTable()) != 1 {
		t.Fatalf("geometry_table.length = %d, want 1", len(res.GeometryTable()))
	}
	if len(res.BaseInstanceTable()) != 1 {
		t.Fatalf("base_instance_table.length = %d, want 1", len(res.BaseInstanceTable()))
	}
	if res.BaseInstanceTable()[0].GeometryTableIndexBase != 0 {
		t.Fatalf("entry 0 must be {0} per the bindless fast path, got %d", res.BaseInstanceTable()[0].GeometryTableIndexBase)
	}
}

func TestTableConsistencyInvariant(t *testing.T) {
	importer := &fakeImporter{scenes: map[string]*asset.ImportedScene{"cube.obj": unitCubeScene()}}
	res := newTestResource(t, importer)

	rngA, _ := res.AddGeometries(context.Background(), "cube.obj")
	baseA := res.AddBaseInstance(rngA)

	if err := res.Commit(context.Background(), SceneDesc{Instances: []SceneInstance{
		{BaseInstanceID: baseA, Transform: mgl32.Ident4()},
	}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	table := res.BaseInstanceTable()
	entry := table[baseA]
	rangeLen := uint32(rngA.Len())
	if uint32(entry.GeometryTableIndexBase)+rangeLen > uint32(len(res.GeometryTable())) {
		t.Fatalf("table consistency violated: base=%d rangeLen=%d geometryTableLen=%d", entry.GeometryTableIndexBase, rangeLen, len(res.GeometryTable()))
	}
}
