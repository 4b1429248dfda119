package passes

import (
	"context"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/gpu/fakegpu"
	"github.com/haldor3d/hwrt/internal/rendercontext"
	"github.com/haldor3d/hwrt/internal/scene"
	"github.com/haldor3d/hwrt/internal/texture"
)

func newTestContext(t *testing.T, dev *fakegpu.Device) rendercontext.RenderContext {
	t.Helper()
	tex, err := texture.New(dev, func(string) (image.Image, error) {
		t.Fatal("no decode expected")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("texture.New: %v", err)
	}
	res, err := scene.New(dev, nil, tex, scene.DefaultLimits())
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	cam := rendercontext.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})
	return rendercontext.RenderContext{
		Device: dev, Scene: res, Camera: cam,
		Width: 64, Height: 64,
	}
}

func TestGBufferPassDispatchesComputePass(t *testing.T) {
	dev := fakegpu.New()
	cache := gpu.NewShaderCache(t.TempDir())
	pass, err := NewGBufferPass(cache, dev, 64, 64)
	if err != nil {
		t.Fatalf("NewGBufferPass: %v", err)
	}
	rc := newTestContext(t, dev)
	if err := pass.Dispatch(context.Background(), rc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(dev.ComputePasses) != 1 || dev.ComputePasses[0].Label != "gbuffer" {
		t.Fatalf("expected one gbuffer compute pass, got %v", dev.ComputePasses)
	}
}

func TestGBufferPassSkipsDispatchWhenNoInstancesVisible(t *testing.T) {
	dev := fakegpu.New()
	cache := gpu.NewShaderCache(t.TempDir())
	pass, err := NewGBufferPass(cache, dev, 64, 64)
	if err != nil {
		t.Fatalf("NewGBufferPass: %v", err)
	}
	rc := newTestContext(t, dev)
	rc.VisibleInstances = []int{}
	if err := pass.Dispatch(context.Background(), rc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(dev.ComputePasses) != 0 {
		t.Fatalf("expected no compute pass when the visibility pre-pass found nothing, got %v", dev.ComputePasses)
	}
}

func TestGBufferPassUploadsVisibleInstances(t *testing.T) {
	dev := fakegpu.New()
	cache := gpu.NewShaderCache(t.TempDir())
	pass, err := NewGBufferPass(cache, dev, 64, 64)
	if err != nil {
		t.Fatalf("NewGBufferPass: %v", err)
	}
	rc := newTestContext(t, dev)
	rc.VisibleInstances = []int{2, 5, 9}
	if err := pass.Dispatch(context.Background(), rc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(dev.ComputePasses) != 1 {
		t.Fatalf("expected one compute pass, got %v", dev.ComputePasses)
	}
	if len(dev.Buffers) == 0 {
		t.Fatalf("expected a visible-instances buffer to be created")
	}
	buf := dev.Buffers[len(dev.Buffers)-1]
	if buf.Size() != uint64(len(rc.VisibleInstances)*4) {
		t.Fatalf("expected visible-instances buffer sized for %d indices, got %d bytes", len(rc.VisibleInstances), buf.Size())
	}
}

func TestPathTracePassSkipsEmptyScene(t *testing.T) {
	dev := fakegpu.New()
	cache := gpu.NewShaderCache(t.TempDir())
	pass, err := NewPathTracePass(cache, dev, 64, 64)
	if err != nil {
		t.Fatalf("NewPathTracePass: %v", err)
	}
	rc := newTestContext(t, dev)
	if err := pass.Dispatch(context.Background(), rc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(dev.RayDispatches) != 0 {
		t.Fatalf("expected no ray dispatch for an uncommitted scene, got %v", dev.RayDispatches)
	}
}

func TestCompositePassDispatchesComputePass(t *testing.T) {
	dev := fakegpu.New()
	cache := gpu.NewShaderCache(t.TempDir())
	pass := NewCompositePass(cache)
	rc := newTestContext(t, dev)
	if err := pass.Dispatch(context.Background(), rc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(dev.ComputePasses) != 1 || dev.ComputePasses[0].Label != "composite" {
		t.Fatalf("expected one composite compute pass, got %v", dev.ComputePasses)
	}
}
