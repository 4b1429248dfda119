// Package rendercontext defines the explicit, plain-data RenderContext
// the render graph builds once per frame and threads through every
// pass's Dispatch call (§9: replacing the teacher's App god-object
// singleton with a value the graph constructs and passes explicitly).
package rendercontext

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/scene"
)

// Camera is the minimal per-frame camera state a pass needs: view and
// projection matrices, and their inverses (for reconstructing world
// rays in the path-trace pass).
type Camera struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	InvView  mgl32.Mat4
	InvProj  mgl32.Mat4
	Position mgl32.Vec3
}

func NewCamera(view, proj mgl32.Mat4, position mgl32.Vec3) Camera {
	return Camera{View: view, Proj: proj, InvView: view.Inv(), InvProj: proj.Inv(), Position: position}
}

// ViewProj returns proj * view, the matrix the visibility pre-pass
// extracts frustum planes from.
func (c Camera) ViewProj() mgl32.Mat4 {
	return c.Proj.Mul4(c.View)
}

// RenderContext is everything a pass needs to dispatch its work for
// one frame: the device, the committed scene resource, the camera, the
// frame's output texture, and which flight/swap-image slot it landed
// in.
type RenderContext struct {
	Device gpu.Device
	Scene  *scene.Resource
	Camera Camera

	FlightIndex int
	ImageIndex  int

	Width, Height uint32

	Output gpu.Texture

	// VisibleInstances holds the indices into the scene's committed
	// instance list that survived the visibility pre-pass (§3.7); a nil
	// slice means "no culling was run, dispatch against all instances".
	VisibleInstances []int

	// ResourcesDirty tells passes that cache bind-group-shaped state to
	// rebuild it (mirrors the teacher's "recreated" flag in App.Update).
	// Graph.Frame does not set it, so it is false unless a caller sets it.
	ResourcesDirty bool
}
