package scene

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/asset"
	"github.com/haldor3d/hwrt/internal/material"
	"github.com/haldor3d/hwrt/internal/mathutil"
)

const (
	positionStride = 3 * 4
	packedStride   = 5 * 4 // normal.xyz + uv.xy
	indexStride    = 2
)

func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}

func marshalPositions(vs []mgl32.Vec3) []byte {
	out := make([]byte, len(vs)*positionStride)
	for i, v := range vs {
		off := i * positionStride
		putFloat32(out, off, v.X())
		putFloat32(out, off+4, v.Y())
		putFloat32(out, off+8, v.Z())
	}
	return out
}

func marshalPacked(vs []asset.PackedVertex) []byte {
	out := make([]byte, len(vs)*packedStride)
	for i, v := range vs {
		off := i * packedStride
		putFloat32(out, off, v.Normal.X())
		putFloat32(out, off+4, v.Normal.Y())
		putFloat32(out, off+8, v.Normal.Z())
		putFloat32(out, off+12, v.UV.X())
		putFloat32(out, off+16, v.UV.Y())
	}
	return out
}

func marshalIndices(idx []mathutil.VertexIndex) []byte {
	out := make([]byte, len(idx)*indexStride)
	for i, v := range idx {
		binary.LittleEndian.PutUint16(out[i*indexStride:], v)
	}
	return out
}

func marshalGeometryTable(entries []GeometryTableEntry) []byte {
	const stride = 16
	out := make([]byte, len(entries)*stride)
	for i, e := range entries {
		off := i * stride
		binary.LittleEndian.PutUint32(out[off:], e.VertexBaseIndex)
		binary.LittleEndian.PutUint32(out[off+4:], e.IndexBaseIndex)
		binary.LittleEndian.PutUint32(out[off+8:], e.MaterialIndex)
		binary.LittleEndian.PutUint32(out[off+12:], e.EmissionIndex)
	}
	return out
}

func marshalBaseInstanceTable(entries []BaseInstanceTableEntry) []byte {
	out := make([]byte, len(entries)*2)
	for i, e := range entries {
		binary.LittleEndian.PutUint16(out[i*2:], e.GeometryTableIndexBase)
	}
	return out
}

func marshalMaterials(mats []material.GPURecord) []byte {
	const stride = 16
	out := make([]byte, len(mats)*stride)
	for i, m := range mats {
		off := i * stride
		binary.LittleEndian.PutUint32(out[off:], m.Diffuse)
		binary.LittleEndian.PutUint32(out[off+4:], m.Specular)
		binary.LittleEndian.PutUint32(out[off+8:], m.Roughness)
	}
	return out
}

func marshalEmissions(emissions []uint32) []byte {
	out := make([]byte, len(emissions)*4)
	for i, e := range emissions {
		binary.LittleEndian.PutUint32(out[i*4:], e)
	}
	return out
}
