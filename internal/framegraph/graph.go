package framegraph

import (
	"context"
	"fmt"

	"github.com/haldor3d/hwrt/internal/accel"
	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/mathutil"
	"github.com/haldor3d/hwrt/internal/rendercontext"
	"github.com/haldor3d/hwrt/internal/scene"
)

// Pass is anything the graph can dispatch once per frame against a
// built RenderContext.
type Pass interface {
	Dispatch(ctx context.Context, rc rendercontext.RenderContext) error
}

// Window is the minimal platform-window surface the graph polls and
// queries once per frame, standing in for the teacher's *glfw.Window
// (§9: narrowed to the handful of calls app.go's loop actually makes).
type Window interface {
	PollEvents()
	FramebufferSize() (width, height int)
}

// Graph drives the per-frame procedure of §4.6: it owns the N
// per-flight resource sets, the per-swap-image hazard trackers, and
// the ordered pass list, modeled directly on the teacher's
// App.Update/Render pair but generalized from a single implicit flight
// to real N-buffering.
type Graph struct {
	Device    gpu.Device
	Swapchain gpu.Swapchain
	Window    Window
	Scene     *scene.Resource

	flights    []*PerFlight
	swaps      []*PerSwap
	flightIdx  int

	DebugBVH     []accel.DebugNode
	InstanceBounds []mathutil.AABB

	Passes []Pass

	lastWidth, lastHeight uint32
}

// NewGraph allocates numFlights per-flight resource sets and one
// per-swap hazard tracker per swapchain image.
func NewGraph(device gpu.Device, swapchain gpu.Swapchain, window Window, sceneResource *scene.Resource, numFlights int, passes []Pass) *Graph {
	g := &Graph{
		Device: device, Swapchain: swapchain, Window: window, Scene: sceneResource,
		Passes: passes,
	}
	for i := 0; i < numFlights; i++ {
		g.flights = append(g.flights, NewPerFlight())
	}
	for i := 0; i < swapchain.ImageCount(); i++ {
		g.swaps = append(g.swaps, &PerSwap{})
	}
	return g
}

// RebuildDebugBVH recomputes the host-side visibility pre-pass
// structure from the current per-instance world-space bounds (§3.7).
// Callers provide the bounds because the core doesn't itself track
// mesh-local AABBs once geometry is packed into the mega-buffers.
func (g *Graph) RebuildDebugBVH(bounds []mathutil.AABB) {
	g.InstanceBounds = bounds
	g.DebugBVH = accel.BuildDebugBVH(bounds)
}

// Frame runs the full per-frame procedure of §4.6:
//  1. poll window events
//  2. wait this flight's fence (blocks until its prior submission retired)
//  3. reset this flight's command/descriptor pools
//  4. acquire the next swapchain image, recreating on out-of-date
//  5. wait whichever other flight last touched that swap image (hazard tracking)
//  6. build the frame's RenderContext
//  7. run the visibility pre-pass (frustum cull against the debug BVH)
//  8. dispatch every pass in order
//  9. submit, signal this flight's fence, and claim the swap image for this flight
//  10. present, recreating on out-of-date
//  11. advance the flight index
func (g *Graph) Frame(ctx context.Context, cam rendercontext.Camera) error {
	g.Window.PollEvents()

	flight := g.flights[g.flightIdx]
	if flight.Fence.IsSignaled() {
		flight.Wait()
	}
	flight.Reset()

	imageIndex, outOfDate, err := g.Swapchain.AcquireNextImage()
	if err != nil {
		return fmt.Errorf("framegraph: acquire: %w", err)
	}
	if outOfDate {
		if err := g.handleResize(); err != nil {
			return err
		}
		imageIndex, _, err = g.Swapchain.AcquireNextImage()
		if err != nil {
			return fmt.Errorf("framegraph: re-acquire after resize: %w", err)
		}
	}

	swap := g.swaps[imageIndex]
	// When this flight was the image's last user, its fence was already
	// waited on above and has since been reset for this frame's work.
	if swap.ImageFence != &flight.Fence {
		swap.WaitPreviousUser()
	}

	width, height := g.Window.FramebufferSize()
	rc := rendercontext.RenderContext{
		Device:      g.Device,
		Scene:       g.Scene,
		Camera:      cam,
		FlightIndex: g.flightIdx,
		ImageIndex:  imageIndex,
		Width:       uint32(width),
		Height:      uint32(height),
	}

	if len(g.DebugBVH) > 0 {
		planes := mathutil.ExtractFrustumPlanes(cam.ViewProj())
		rc.VisibleInstances = accel.VisibleInstances(g.DebugBVH, planes)
	}

	for _, pass := range g.Passes {
		if err := pass.Dispatch(ctx, rc); err != nil {
			return fmt.Errorf("framegraph: pass dispatch: %w", err)
		}
	}

	if err := g.Device.SubmitAndWait(ctx); err != nil {
		return fmt.Errorf("framegraph: submit: %w", err)
	}
	flight.Fence.Signal()
	swap.ClaimFor(flight)

	presentOutOfDate, err := g.Swapchain.Present(imageIndex)
	if err != nil {
		return fmt.Errorf("framegraph: present: %w", err)
	}
	if presentOutOfDate {
		if err := g.handleResize(); err != nil {
			return err
		}
	}

	g.flightIdx = (g.flightIdx + 1) % len(g.flights)
	return nil
}

// handleResize recreates the swapchain at the window's current
// framebuffer size (§4.6 step 12 / teacher's App.Resize).
func (g *Graph) handleResize() error {
	width, height := g.Window.FramebufferSize()
	if width <= 0 || height <= 0 {
		return nil
	}
	g.lastWidth, g.lastHeight = uint32(width), uint32(height)
	g.Swapchain.Resize(g.lastWidth, g.lastHeight)
	return nil
}
