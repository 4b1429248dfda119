package asset

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/mathutil"
)

// PackedVertex is the shading-normal + uv record parallel to the
// position mega-buffer (§3 "Mega-buffer packed-vertex stream").
type PackedVertex struct {
	Normal mgl32.Vec3
	UV     mgl32.Vec2
}

var fallbackNormal = mgl32.Vec3{0, 0, 1}

// WriteGeometryInfo fills destination spans sized exactly to info's
// dst counts, per §4.1's write contract.
func WriteGeometryInfo(scene *ImportedScene, info GeometryInfo, dstPositions []mgl32.Vec3, dstPacked []PackedVertex, dstIndices []mathutil.VertexIndex) error {
	if len(dstPositions) != info.DstNumVertices || len(dstPacked) != info.DstNumVertices {
		return fmt.Errorf("asset: destination vertex spans must have length %d", info.DstNumVertices)
	}
	if len(dstIndices) != info.DstNumIndices {
		return fmt.Errorf("asset: destination index span must have length %d", info.DstNumIndices)
	}
	if info.DstNumVertices == 0 || info.DstNumIndices == 0 {
		panic(fmt.Sprintf("asset: split geometry with zero faces or zero vertices (mesh %d, faces [%d,%d))", info.MeshIndex, info.FaceRange.Begin, info.FaceRange.End))
	}

	mesh := &scene.Meshes[info.MeshIndex]
	if info.ReorderNeeded {
		return writeReordered(mesh, info, dstPositions, dstPacked, dstIndices)
	}
	return writeContiguous(mesh, info, dstPositions, dstPacked, dstIndices)
}

func writeVertex(dstPositions []mgl32.Vec3, dstPacked []PackedVertex, dstIdx int, v Vertex) {
	dstPositions[dstIdx] = v.Position
	normal := v.Normal
	if normal.Len() == 0 {
		normal = fallbackNormal
	}
	dstPacked[dstIdx] = PackedVertex{Normal: normal, UV: v.UV}
}

func writeContiguous(mesh *SourceMesh, info GeometryInfo, dstPositions []mgl32.Vec3, dstPacked []PackedVertex, dstIndices []mathutil.VertexIndex) error {
	minV, _ := vertexSpan(mesh.Faces, info.FaceRange)
	for i := 0; i < info.DstNumVertices; i++ {
		writeVertex(dstPositions, dstPacked, i, mesh.Vertices[minV+i])
	}

	idxCursor := 0
	for f := info.FaceRange.Begin; f < info.FaceRange.End; f++ {
		face := mesh.Faces[f]
		for _, tri := range mathutil.ExpandTriangleFan(len(face)) {
			for _, corner := range tri {
				rel := face[corner] - minV
				if rel < 0 || rel > mathutil.MaxIndexWidth {
					return fmt.Errorf("asset: contiguous geometry index %d out of 16-bit range", rel)
				}
				dstIndices[idxCursor] = mathutil.VertexIndex(rel)
				idxCursor++
			}
		}
	}
	return nil
}

func writeReordered(mesh *SourceMesh, info GeometryInfo, dstPositions []mgl32.Vec3, dstPacked []PackedVertex, dstIndices []mathutil.VertexIndex) error {
	srcToDst := make(map[int]int, info.DstNumVertices)
	nextFree := 0

	idxCursor := 0
	for f := info.FaceRange.Begin; f < info.FaceRange.End; f++ {
		face := mesh.Faces[f]
		for _, tri := range mathutil.ExpandTriangleFan(len(face)) {
			for _, corner := range tri {
				srcIdx := face[corner]
				dstIdx, ok := srcToDst[srcIdx]
				if !ok {
					if nextFree >= info.DstNumVertices {
						return fmt.Errorf("asset: reordered geometry exceeded its reserved %d vertices", info.DstNumVertices)
					}
					dstIdx = nextFree
					srcToDst[srcIdx] = dstIdx
					writeVertex(dstPositions, dstPacked, dstIdx, mesh.Vertices[srcIdx])
					nextFree++
				}
				if dstIdx > mathutil.MaxIndexWidth {
					return fmt.Errorf("asset: reordered geometry index %d out of 16-bit range", dstIdx)
				}
				dstIndices[idxCursor] = mathutil.VertexIndex(dstIdx)
				idxCursor++
			}
		}
	}
	return nil
}
