// Package accel implements the host-side acceleration-structure
// descriptor assembly of §4.4 steps 1-2: turning base-instance geometry
// ranges into BLAS geometry descriptors, and scene instances into TLAS
// instance descriptors. The actual BuildBLAS/BuildTLAS GPU calls go
// through internal/gpu.Device; this package only assembles their inputs,
// which keeps the logic pure and unit-testable without a GPU.
package accel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/gpu"
)

// GeometryRef is the subset of a scene geometry record the BLAS
// assembler needs.
type GeometryRef struct {
	VertexBaseIndex uint32
	IndexBaseIndex  uint32
	NumVertices     uint32
	NumIndices      uint32
	IsUpdatable     bool
}

// AssembleBLASGeometry builds the ray-tracing geometry descriptors for
// one base instance's geometries, and picks the "deformable" hint if
// any geometry in the set is marked updatable (§4.4 step 1).
func AssembleBLASGeometry(geoms []GeometryRef, vertexStride, indexStride uint64) ([]gpu.GeometryDesc, gpu.BuildHint) {
	descs := make([]gpu.GeometryDesc, 0, len(geoms))
	hint := gpu.BuildHintFastTrace
	for _, g := range geoms {
		if g.IsUpdatable {
			hint = gpu.BuildHintDeformable
		}
		descs = append(descs, gpu.GeometryDesc{
			VertexBufferOffset: uint64(g.VertexBaseIndex) * vertexStride,
			VertexCount:        g.NumVertices,
			IndexBufferOffset:  uint64(g.IndexBaseIndex) * indexStride,
			IndexCount:         g.NumIndices,
			Opaque:             true,
		})
	}
	return descs, hint
}

// AssembleTLASInstance builds one ray-tracing instance descriptor for a
// scene instance, per §4.4 step 2.
func AssembleTLASInstance(blas gpu.AccelHandle, transform mgl32.Mat4, hitGroupID, baseInstanceID uint32) gpu.InstanceDesc {
	return gpu.InstanceDesc{
		BLAS:           blas,
		Transform3x4:   transform3x4(transform),
		HitGroupOffset: hitGroupID,
		Mask:           0xff,
		InstanceID:     baseInstanceID,
	}
}

func transform3x4(m mgl32.Mat4) [12]float32 {
	return [12]float32{
		m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(0, 3),
		m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3),
		m.At(2, 0), m.At(2, 1), m.At(2, 2), m.At(2, 3),
	}
}
