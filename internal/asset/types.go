// Package asset implements the import adapter of §4.1: it wraps the
// external mesh importer, exposing geometry-info records that respect
// the renderer's 16-bit index width, splitting meshes that overflow it.
package asset

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/material"
)

// Vertex is one source-mesh vertex as the importer hands it over.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Face is an n-gon, given as a list of indices into the owning mesh's
// Vertices (triangle-fan winding, vertex 0 first, per §9).
type Face []int

// SourceMesh is one mesh from the imported scene.
type SourceMesh struct {
	Vertices   []Vertex
	Faces      []Face
	MaterialID int
}

// ImportedScene is the whole in-memory result of ReadScene.
type ImportedScene struct {
	Meshes    []SourceMesh
	Materials []material.Source
}

// Importer is the external mesh-importer collaborator §1 places out
// of core scope; the core only consumes its result.
type Importer interface {
	ReadScene(path string) (*ImportedScene, bool)
}
