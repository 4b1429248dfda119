package scene

import (
	"context"
	"fmt"

	"github.com/haldor3d/hwrt/internal/accel"
	"github.com/haldor3d/hwrt/internal/gpu"
)

// Commit implements §4.4: build one BLAS per base instance, a single
// TLAS over the scene instances, and upload fresh geometry/base-instance
// tables, waiting for the transfer to complete before returning.
func (r *Resource) Commit(ctx context.Context, desc SceneDesc) error {
	if err := r.buildBLASes(ctx); err != nil {
		return err
	}
	if err := r.buildTLAS(ctx, desc); err != nil {
		return err
	}
	if err := r.uploadMaterials(ctx); err != nil {
		return err
	}
	if err := r.uploadTables(ctx); err != nil {
		return err
	}
	return r.device.SubmitAndWait(ctx)
}

func (r *Resource) buildBLASes(ctx context.Context) error {
	r.blases = r.blases[:0]
	for _, bi := range r.baseInstances {
		var refs []accel.GeometryRef
		for _, rng := range bi.Ranges {
			for gid := rng.Begin; gid < rng.End; gid++ {
				g := r.geometries[gid]
				refs = append(refs, accel.GeometryRef{
					VertexBaseIndex: g.VertexBaseIndex,
					IndexBaseIndex:  g.IndexBaseIndex,
					NumVertices:     g.NumVertices,
					NumIndices:      g.NumIndices,
					IsUpdatable:     g.IsUpdatable,
				})
			}
		}
		geoms, hint := accel.AssembleBLASGeometry(refs, positionStride, indexStride)
		handle, err := r.device.BuildBLAS(ctx, geoms, hint)
		if err != nil {
			return fmt.Errorf("scene: building BLAS: %w", err)
		}
		r.blases = append(r.blases, handle)
	}
	return nil
}

func (r *Resource) buildTLAS(ctx context.Context, desc SceneDesc) error {
	instances := make([]gpu.InstanceDesc, 0, len(desc.Instances))
	for _, inst := range desc.Instances {
		if int(inst.BaseInstanceID) >= len(r.blases) {
			return fmt.Errorf("scene: scene instance references unknown base instance %d", inst.BaseInstanceID)
		}
		instances = append(instances, accel.AssembleTLASInstance(r.blases[inst.BaseInstanceID], inst.Transform, inst.HitGroupID, inst.BaseInstanceID))
	}
	tlas, err := r.device.BuildTLAS(ctx, instances)
	if err != nil {
		return fmt.Errorf("scene: building TLAS: %w", err)
	}
	r.tlas = tlas
	return nil
}

// uploadTables implements §4.4 step 4: walk base instances in order,
// appending a base-instance-table row (index-base must fit u16) and
// one geometry-table row per geometry named by that base instance's
// ranges.
func (r *Resource) uploadTables(ctx context.Context) error {
	var baseInstanceTable []BaseInstanceTableEntry
	var geometryTable []GeometryTableEntry

	for _, bi := range r.baseInstances {
		if len(geometryTable) > 0xffff {
			panic(fmt.Sprintf("scene: base-instance geometry_table_index_base %d exceeds uint16", len(geometryTable)))
		}
		baseInstanceTable = append(baseInstanceTable, BaseInstanceTableEntry{
			GeometryTableIndexBase: uint16(len(geometryTable)),
		})
		for _, rng := range bi.Ranges {
			for gid := rng.Begin; gid < rng.End; gid++ {
				if len(geometryTable) >= r.limits.MaxGeometryTableEntries {
					panic(fmt.Sprintf("scene: geometry table capacity exceeded: %d entries", r.limits.MaxGeometryTableEntries))
				}
				g := r.geometries[gid]
				geometryTable = append(geometryTable, GeometryTableEntry{
					VertexBaseIndex: g.VertexBaseIndex,
					IndexBaseIndex:  g.IndexBaseIndex,
					MaterialIndex:   g.MaterialIndex,
					EmissionIndex:   g.EmissionIndex,
				})
			}
		}
	}

	if err := r.geometryTableBuf.ensureCapacity(ctx, uint64(len(geometryTable))); err != nil {
		return err
	}
	if err := r.baseInstanceTableBuf.ensureCapacity(ctx, uint64(len(baseInstanceTable))); err != nil {
		return err
	}
	if err := r.geometryTableBuf.writeAt(0, marshalGeometryTable(geometryTable)); err != nil {
		return err
	}
	if err := r.baseInstanceTableBuf.writeAt(0, marshalBaseInstanceTable(baseInstanceTable)); err != nil {
		return err
	}

	r.geometryTable = geometryTable
	r.baseInstanceTable = baseInstanceTable
	return nil
}
