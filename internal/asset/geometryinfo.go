package asset

import (
	"github.com/haldor3d/hwrt/internal/mathutil"
)

// GeometryInfo describes one destination geometry carved out of a
// source mesh: which source faces it covers, how many destination
// vertices/indices it needs, which material it uses, and whether
// WriteGeometryInfo must build a fresh index-remapping (§4.1).
type GeometryInfo struct {
	MeshIndex        int
	FaceRange        mathutil.Range
	DstNumVertices   int
	DstNumIndices    int
	SourceMaterialID int
	ReorderNeeded    bool
}

// dstIndexCount returns 3*(n-2) for each face in faces[r], the
// triangle-fan-to-triangle-list expansion count (§9).
func dstIndexCount(faces []Face, r mathutil.Range) int {
	count := 0
	for i := r.Begin; i < r.End; i++ {
		n := len(faces[i])
		if n >= 3 {
			count += 3 * (n - 2)
		}
	}
	return count
}

// vertexSpan returns the min and max source-vertex index referenced by
// any face in faces[r].
func vertexSpan(faces []Face, r mathutil.Range) (min, max int) {
	min, max = -1, -1
	for i := r.Begin; i < r.End; i++ {
		for _, v := range faces[i] {
			if min == -1 || v < min {
				min = v
			}
			if max == -1 || v > max {
				max = v
			}
		}
	}
	return
}

// GeometryInfos implements the §4.1 splitting algorithm for a whole
// imported scene: every source mesh is scanned and split into one or
// more GeometryInfo records, each guaranteed to fit within limit
// distinct source vertices.
func GeometryInfos(scene *ImportedScene, limit int) []GeometryInfo {
	var out []GeometryInfo
	for meshIdx := range scene.Meshes {
		out = append(out, geometryInfosForMesh(scene, meshIdx, limit)...)
	}
	return out
}

func geometryInfosForMesh(scene *ImportedScene, meshIdx int, limit int) []GeometryInfo {
	mesh := &scene.Meshes[meshIdx]
	full := mathutil.Range{Begin: 0, End: uint32(len(mesh.Faces))}
	if full.Len() == 0 {
		return nil
	}

	minV, maxV := vertexSpan(mesh.Faces, full)
	if maxV-minV+1 <= limit {
		return []GeometryInfo{{
			MeshIndex:        meshIdx,
			FaceRange:        full,
			DstNumVertices:   maxV - minV + 1,
			DstNumIndices:    dstIndexCount(mesh.Faces, full),
			SourceMaterialID: mesh.MaterialID,
			ReorderNeeded:    false,
		}}
	}

	var out []GeometryInfo
	seen := make(map[int]struct{})
	rangeStart := 0
	for faceIdx := 0; faceIdx < len(mesh.Faces); faceIdx++ {
		face := mesh.Faces[faceIdx]
		added := 0
		for _, v := range face {
			if _, ok := seen[v]; !ok {
				added++
			}
		}
		if len(seen)+added > limit && faceIdx > rangeStart {
			out = append(out, finishReorderRange(meshIdx, mesh, rangeStart, faceIdx, len(seen)))
			seen = make(map[int]struct{})
			rangeStart = faceIdx
		}
		for _, v := range face {
			seen[v] = struct{}{}
		}
	}
	out = append(out, finishReorderRange(meshIdx, mesh, rangeStart, len(mesh.Faces), len(seen)))
	return out
}

func finishReorderRange(meshIdx int, mesh *SourceMesh, begin, end int, numVertices int) GeometryInfo {
	r := mathutil.Range{Begin: uint32(begin), End: uint32(end)}
	return GeometryInfo{
		MeshIndex:        meshIdx,
		FaceRange:        r,
		DstNumVertices:   numVertices,
		DstNumIndices:    dstIndexCount(mesh.Faces, r),
		SourceMaterialID: mesh.MaterialID,
		ReorderNeeded:    true,
	}
}
