// Package scene implements the scene resource of §3/§4.2/§4.4: the GPU
// mega-buffers, the geometry and base-instance indirection tables, and
// the acceleration-structure commit procedure.
package scene

import "github.com/haldor3d/hwrt/internal/mathutil"

// GeometryRecord is the host-and-GPU-mirrored record of §3: one entry
// per packed geometry appended by AddGeometries.
type GeometryRecord struct {
	VertexBaseIndex uint32
	IndexBaseIndex  uint32
	NumVertices     uint32
	NumIndices      uint32
	MaterialIndex   uint32
	EmissionIndex   uint32
	IsUpdatable     bool
}

// BaseInstance is a host-only ordered list of half-open geometry-id
// ranges; all geometries it names share one BLAS.
type BaseInstance struct {
	Ranges []mathutil.Range
}

// GeometryTableEntry is the GPU-side row addressed by
// base_instance_table[InstanceID].geometry_table_index_base + GeometryIndex.
type GeometryTableEntry struct {
	VertexBaseIndex uint32
	IndexBaseIndex  uint32
	MaterialIndex   uint32
	EmissionIndex   uint32
}

// BaseInstanceTableEntry is the GPU-side row one per base instance.
// geometry_table_index_base must fit a uint16, per §3.
type BaseInstanceTableEntry struct {
	GeometryTableIndexBase uint16
}

// MaxGeometryTableEntries bounds the geometry table so that every
// base-instance-table row's GeometryTableIndexBase fits in a uint16.
const MaxGeometryTableEntries = 1 << 16
