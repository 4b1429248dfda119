package mathutil

// ExpandTriangleFan turns a single n-gon face, given as a vertex count,
// into its triangle-list index triples, fanned from vertex 0. A
// triangle (n=3) yields one triple; a quad (n=4) yields two; an n-gon
// yields 3*(n-2) indices as n-2 triangles.
func ExpandTriangleFan(faceVertexCount int) [][3]int {
	if faceVertexCount < 3 {
		return nil
	}
	tris := make([][3]int, 0, faceVertexCount-2)
	for i := 1; i < faceVertexCount-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}
