package scene

import "github.com/go-gl/mathgl/mgl32"

// SceneInstance is provided by the frontend each commit: which base
// instance (and therefore BLAS) to place, which hit-group triple to
// bind, and its world transform.
type SceneInstance struct {
	BaseInstanceID uint32
	HitGroupID     uint32
	Transform      mgl32.Mat4
}

// SceneDesc is the input to Commit: an ordered list of scene instances.
type SceneDesc struct {
	Instances []SceneInstance
}
