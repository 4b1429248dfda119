package scene

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/asset"
	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/material"
	"github.com/haldor3d/hwrt/internal/mathutil"
	"github.com/haldor3d/hwrt/internal/texture"
)

// Limits bounds the mega-buffers and tables; overflowing any of them
// is fatal per §4.2/§4.4.
type Limits struct {
	MaxVertices             uint64
	MaxIndices              uint64
	MaxGeometryTableEntries int
}

func DefaultLimits() Limits {
	return Limits{
		MaxVertices:             1 << 20,
		MaxIndices:              1 << 22,
		MaxGeometryTableEntries: MaxGeometryTableEntries,
	}
}

// Resource owns the GPU mega-buffers, the geometry/base-instance
// tables, the BLASes, and the TLAS (§3 "Ownership summary").
type Resource struct {
	device   gpu.Device
	importer asset.Importer
	textures *texture.Pool
	limits   Limits

	positions *megaBuffer
	packed    *megaBuffer
	indices   *megaBuffer

	numVerticesFilled uint32
	numIndicesFilled  uint32

	geometries []GeometryRecord
	materials  []material.GPURecord
	emissions  []material.GPUEmission

	baseInstances []BaseInstance

	materialsBuf *megaBuffer
	emissionsBuf *megaBuffer

	geometryTableBuf     *megaBuffer
	baseInstanceTableBuf *megaBuffer
	geometryTable        []GeometryTableEntry
	baseInstanceTable    []BaseInstanceTableEntry

	blases []gpu.AccelHandle
	tlas   gpu.AccelHandle
}

// GeometryTable returns the host mirror of the last-uploaded geometry
// table, for tests and diagnostics.
func (r *Resource) GeometryTable() []GeometryTableEntry { return r.geometryTable }

// BaseInstanceTable returns the host mirror of the last-uploaded
// base-instance table, for tests and diagnostics.
func (r *Resource) BaseInstanceTable() []BaseInstanceTableEntry { return r.baseInstanceTable }

// NumGeometries reports how many geometry records AddGeometries has
// produced so far.
func (r *Resource) NumGeometries() int { return len(r.geometries) }

// Geometry returns the geometry record for id, for tests.
func (r *Resource) Geometry(id uint32) GeometryRecord { return r.geometries[id] }

// BLASCount reports how many BLASes the last Commit built.
func (r *Resource) BLASCount() int { return len(r.blases) }

// TLAS returns the handle built by the last Commit.
func (r *Resource) TLAS() gpu.AccelHandle { return r.tlas }

func New(device gpu.Device, importer asset.Importer, textures *texture.Pool, limits Limits) (*Resource, error) {
	positions, err := newMegaBuffer(device, gpu.UsageVertex|gpu.UsageAccelInput|gpu.UsageTransferDst, positionStride, 1024)
	if err != nil {
		return nil, err
	}
	packed, err := newMegaBuffer(device, gpu.UsageStorage|gpu.UsageTransferDst, packedStride, 1024)
	if err != nil {
		return nil, err
	}
	indices, err := newMegaBuffer(device, gpu.UsageIndex|gpu.UsageAccelInput|gpu.UsageTransferDst, indexStride, 2048)
	if err != nil {
		return nil, err
	}
	materialsBuf, err := newMegaBuffer(device, gpu.UsageStorage|gpu.UsageTransferDst, 16, 256)
	if err != nil {
		return nil, err
	}
	emissionsBuf, err := newMegaBuffer(device, gpu.UsageStorage|gpu.UsageTransferDst, 4, 256)
	if err != nil {
		return nil, err
	}
	geometryTableBuf, err := newMegaBuffer(device, gpu.UsageStorage|gpu.UsageTransferDst, 16, 256)
	if err != nil {
		return nil, err
	}
	baseInstanceTableBuf, err := newMegaBuffer(device, gpu.UsageStorage|gpu.UsageTransferDst, 2, 64)
	if err != nil {
		return nil, err
	}

	r := &Resource{
		device: device, importer: importer, textures: textures, limits: limits,
		positions: positions, packed: packed, indices: indices,
		materialsBuf: materialsBuf, emissionsBuf: emissionsBuf,
		geometryTableBuf: geometryTableBuf, baseInstanceTableBuf: baseInstanceTableBuf,
	}

	// Index 0 of both tables is the reserved black fallback (§4.3 "index
	// 0 reservation"), mirroring get_standard_black_material's push in
	// the original constructor: fully black diffuse/specular, roughness
	// pinned to 1. Real materials/emissions from AddGeometries start at
	// index 1.
	r.materials = append(r.materials, material.GPURecord{
		Diffuse:   material.EncodeConstant3(0, 0, 0),
		Specular:  material.EncodeConstant3(0, 0, 0),
		Roughness: material.EncodeConstant1(1),
	})
	r.emissions = append(r.emissions, material.GPUEmission{
		Emission: material.EncodeConstant3(0, 0, 0),
	})
	if err := r.uploadMaterials(context.Background()); err != nil {
		return nil, fmt.Errorf("scene: uploading reserved black fallback: %w", err)
	}

	return r, nil
}

// AddGeometries implements §4.2: it reads path, splits its meshes to
// fit the 16-bit index width, packs them into the mega-buffers at
// 32-aligned bases, and returns the half-open range of new geometry ids.
func (r *Resource) AddGeometries(ctx context.Context, path string) (mathutil.Range, error) {
	importedScene, ok := r.importer.ReadScene(path)
	if !ok {
		return mathutil.Range{}, fmt.Errorf("scene: failed to read scene %q", path)
	}

	infos := asset.GeometryInfos(importedScene, mathutil.MaxIndexWidth)

	materialOffset := uint32(len(r.materials))
	for _, src := range importedScene.Materials {
		gpuMat, gpuEmission, err := material.Build(src, r.textures.AddTexture)
		if err != nil {
			return mathutil.Range{}, fmt.Errorf("scene: building material: %w", err)
		}
		r.materials = append(r.materials, gpuMat)
		r.emissions = append(r.emissions, gpuEmission)
	}

	type geomBases struct {
		vertexBase, indexBase uint32
	}
	bases := make([]geomBases, len(infos))
	var localVertexCursor, localIndexCursor uint32
	for i, info := range infos {
		bases[i] = geomBases{vertexBase: localVertexCursor, indexBase: localIndexCursor}
		localVertexCursor += mathutil.AlignUp32(uint32(info.DstNumVertices))
		localIndexCursor += mathutil.AlignUp32(uint32(info.DstNumIndices))
	}
	totalVertices := localVertexCursor
	totalIndices := localIndexCursor

	if uint64(r.numVerticesFilled)+uint64(totalVertices) > r.limits.MaxVertices {
		panic(fmt.Sprintf("scene: position mega-buffer capacity exceeded: %d + %d > %d", r.numVerticesFilled, totalVertices, r.limits.MaxVertices))
	}
	if uint64(r.numIndicesFilled)+uint64(totalIndices) > r.limits.MaxIndices {
		panic(fmt.Sprintf("scene: index mega-buffer capacity exceeded: %d + %d > %d", r.numIndicesFilled, totalIndices, r.limits.MaxIndices))
	}

	positionsHost := make([]mgl32.Vec3, totalVertices)
	packedHost := make([]asset.PackedVertex, totalVertices)
	indicesHost := make([]mathutil.VertexIndex, totalIndices)

	beginGeometry := uint32(len(r.geometries))
	for i, info := range infos {
		base := bases[i]
		dstPositions := positionsHost[base.vertexBase : base.vertexBase+uint32(info.DstNumVertices)]
		dstPacked := packedHost[base.vertexBase : base.vertexBase+uint32(info.DstNumVertices)]
		dstIndices := indicesHost[base.indexBase : base.indexBase+uint32(info.DstNumIndices)]

		if err := asset.WriteGeometryInfo(importedScene, info, dstPositions, dstPacked, dstIndices); err != nil {
			return mathutil.Range{}, fmt.Errorf("scene: writing geometry %d: %w", i, err)
		}

		emissionIdx := uint32(0)
		matGlobalIdx := materialOffset + uint32(info.SourceMaterialID)
		if int(matGlobalIdx) < len(r.emissions) && material.EmissionIsNonZero(r.emissions[matGlobalIdx].Emission) {
			emissionIdx = matGlobalIdx
		}

		r.geometries = append(r.geometries, GeometryRecord{
			VertexBaseIndex: base.vertexBase + r.numVerticesFilled,
			IndexBaseIndex:  base.indexBase + r.numIndicesFilled,
			NumVertices:     uint32(info.DstNumVertices),
			NumIndices:      uint32(info.DstNumIndices),
			MaterialIndex:   matGlobalIdx,
			EmissionIndex:   emissionIdx,
			IsUpdatable:     false,
		})
	}

	if err := r.uploadMeshData(ctx, positionsHost, packedHost, indicesHost); err != nil {
		return mathutil.Range{}, err
	}
	if err := r.uploadMaterials(ctx); err != nil {
		return mathutil.Range{}, err
	}

	r.numVerticesFilled += totalVertices
	r.numIndicesFilled += totalIndices

	return mathutil.Range{Begin: beginGeometry, End: uint32(len(r.geometries))}, nil
}

// AddBaseInstance registers a new base instance covering the given
// geometry-id ranges and returns its id.
func (r *Resource) AddBaseInstance(ranges ...mathutil.Range) uint32 {
	r.baseInstances = append(r.baseInstances, BaseInstance{Ranges: ranges})
	return uint32(len(r.baseInstances) - 1)
}

func (r *Resource) uploadMeshData(ctx context.Context, positions []mgl32.Vec3, packed []asset.PackedVertex, indices []mathutil.VertexIndex) error {
	newVertexTotal := uint64(r.numVerticesFilled) + uint64(len(positions))
	newIndexTotal := uint64(r.numIndicesFilled) + uint64(len(indices))

	if err := r.positions.ensureCapacity(ctx, newVertexTotal); err != nil {
		return err
	}
	if err := r.packed.ensureCapacity(ctx, newVertexTotal); err != nil {
		return err
	}
	if err := r.indices.ensureCapacity(ctx, newIndexTotal); err != nil {
		return err
	}

	if err := r.positions.writeAt(uint64(r.numVerticesFilled), marshalPositions(positions)); err != nil {
		return err
	}
	if err := r.packed.writeAt(uint64(r.numVerticesFilled), marshalPacked(packed)); err != nil {
		return err
	}
	if err := r.indices.writeAt(uint64(r.numIndicesFilled), marshalIndices(indices)); err != nil {
		return err
	}
	return r.device.SubmitAndWait(ctx)
}

func (r *Resource) uploadMaterials(ctx context.Context) error {
	if err := r.materialsBuf.ensureCapacity(ctx, uint64(len(r.materials))); err != nil {
		return err
	}
	if err := r.emissionsBuf.ensureCapacity(ctx, uint64(len(r.emissions))); err != nil {
		return err
	}
	if err := r.materialsBuf.writeAt(0, marshalMaterials(r.materials)); err != nil {
		return err
	}
	emissionFields := make([]uint32, len(r.emissions))
	for i, e := range r.emissions {
		emissionFields[i] = e.Emission
	}
	if err := r.emissionsBuf.writeAt(0, marshalEmissions(emissionFields)); err != nil {
		return err
	}
	return r.device.SubmitAndWait(ctx)
}
