package framegraph

import (
	"context"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/gpu/fakegpu"
	"github.com/haldor3d/hwrt/internal/mathutil"
	"github.com/haldor3d/hwrt/internal/rendercontext"
	"github.com/haldor3d/hwrt/internal/scene"
	"github.com/haldor3d/hwrt/internal/texture"
)

type fakeWindow struct {
	width, height int
	polls         int
}

func (w *fakeWindow) PollEvents()                       { w.polls++ }
func (w *fakeWindow) FramebufferSize() (int, int)       { return w.width, w.height }

type countingPass struct {
	dispatches int
	lastRC     rendercontext.RenderContext
}

func (p *countingPass) Dispatch(_ context.Context, rc rendercontext.RenderContext) error {
	p.dispatches++
	p.lastRC = rc
	return nil
}

func newTestGraph(t *testing.T, numFlights, numImages int) (*Graph, *fakegpu.Device, *fakeWindow, *countingPass) {
	t.Helper()
	dev := fakegpu.New()
	pool, err := texture.New(dev, func(string) (image.Image, error) { panic("no textures") })
	if err != nil {
		t.Fatalf("texture.New: %v", err)
	}
	res, err := scene.New(dev, nil, pool, scene.DefaultLimits())
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	win := &fakeWindow{width: 640, height: 480}
	sc := fakegpu.NewSwapchain(numImages, 640, 480)
	pass := &countingPass{}
	g := NewGraph(dev, sc, win, res, numFlights, []Pass{pass})
	return g, dev, win, pass
}

func TestFrameRunsPassesAndSignalsFence(t *testing.T) {
	g, dev, win, pass := newTestGraph(t, 2, 2)
	cam := rendercontext.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})

	if err := g.Frame(context.Background(), cam); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if win.polls != 1 {
		t.Fatalf("expected PollEvents called once, got %d", win.polls)
	}
	if pass.dispatches != 1 {
		t.Fatalf("expected pass dispatched once, got %d", pass.dispatches)
	}
	if len(dev.RayDispatches) != 0 || len(dev.ComputePasses) != 0 {
		t.Fatalf("a countingPass-only graph should never touch the device directly, got rays=%v passes=%v", dev.RayDispatches, dev.ComputePasses)
	}
	if !g.flights[0].Fence.IsSignaled() {
		t.Fatal("expected flight 0's fence to be signaled after its frame")
	}
	if g.flightIdx != 1 {
		t.Fatalf("expected flight index to advance to 1, got %d", g.flightIdx)
	}
}

func TestFrameAdvancesFlightsRoundRobin(t *testing.T) {
	g, _, _, pass := newTestGraph(t, 3, 2)
	cam := rendercontext.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})

	for i := 0; i < 7; i++ {
		if err := g.Frame(context.Background(), cam); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
	if pass.dispatches != 7 {
		t.Fatalf("expected 7 dispatches, got %d", pass.dispatches)
	}
	if g.flightIdx != 7%3 {
		t.Fatalf("expected flight index %d, got %d", 7%3, g.flightIdx)
	}
}

func TestFrameReusesFlightWaitsOnPriorFence(t *testing.T) {
	g, _, _, _ := newTestGraph(t, 1, 1)
	cam := rendercontext.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})

	// With a single flight, frame 2 must wait on frame 1's fence before
	// resetting it; this must not panic (Signal always precedes Wait).
	if err := g.Frame(context.Background(), cam); err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	if err := g.Frame(context.Background(), cam); err != nil {
		t.Fatalf("frame 2: %v", err)
	}
}

func TestFrameHandlesSwapchainResize(t *testing.T) {
	g, _, win, _ := newTestGraph(t, 2, 2)
	cam := rendercontext.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})

	fakeSc := g.Swapchain.(*fakegpu.Swapchain)
	fakeSc.OutOfDate = true
	win.width, win.height = 1280, 720

	if err := g.Frame(context.Background(), cam); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if fakeSc.Width != 1280 || fakeSc.Height != 720 {
		t.Fatalf("expected swapchain resized to 1280x720, got %dx%d", fakeSc.Width, fakeSc.Height)
	}
}

func TestRebuildDebugBVHNarrowsVisibleInstances(t *testing.T) {
	g, _, _, pass := newTestGraph(t, 1, 1)
	bounds := []mathutil.AABB{
		{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}},
		{Min: mgl32.Vec3{1000, 1000, 1000}, Max: mgl32.Vec3{1001, 1001, 1001}},
	}
	g.RebuildDebugBVH(bounds)

	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	cam := rendercontext.NewCamera(view, proj, mgl32.Vec3{0, 0, 5})

	if err := g.Frame(context.Background(), cam); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	for _, idx := range pass.lastRC.VisibleInstances {
		if idx == 1 {
			t.Fatal("far-away instance should have been culled from VisibleInstances")
		}
	}
}
