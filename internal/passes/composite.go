package passes

import (
	"context"
	"fmt"

	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/rendercontext"
)

// CompositePass blits the path-trace pass's accumulated radiance into
// the swapchain image, applying tone mapping (§4.9). It is the only
// pass that writes the frame's swap-image output rather than an
// internal render target.
type CompositePass struct {
	ShaderKey string
}

func NewCompositePass(cache *gpu.ShaderCache) *CompositePass {
	return &CompositePass{ShaderKey: cache.Key("composite.wgsl", "fs_main", nil)}
}

// Dispatch issues the "composite" compute pass, one workgroup per 8x8
// tile of rc.Width x rc.Height; the textures it reads and writes are
// resolved by the backend from that label, and rc.Output is not used.
func (p *CompositePass) Dispatch(ctx context.Context, rc rendercontext.RenderContext) error {
	groupsX := (rc.Width + 7) / 8
	groupsY := (rc.Height + 7) / 8
	if err := rc.Device.RunComputePass(ctx, "composite", groupsX, groupsY); err != nil {
		return fmt.Errorf("passes: composite dispatch: %w", err)
	}
	return nil
}
