// Package passes implements the render graph's GPU passes: the G-buffer
// pass, the ray-traced path-trace pass, and the final composite pass
// (§4.7-4.9). Each pass owns its compiled-shader cache key and
// exposes a single Dispatch(ctx, rc) method,
// modeled on the shape of the teacher's GizmoRenderPass (pipeline +
// bind group + per-frame Update, one struct per pass) generalized from
// render pipelines to the path tracer's compute/ray dispatches.
package passes

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/rendercontext"
)

// GBufferPass rasterizes (or ray-casts, backend-dependent) primary
// visibility into world-space position/normal/material-id targets
// consumed by the path-trace pass (§4.7).
type GBufferPass struct {
	ShaderKey string
	Output    gpu.Texture

	// visibleInstances is the per-frame storage buffer holding the
	// instance indices the visibility pre-pass (§3.7) kept; it grows to
	// fit the largest visible set seen so far.
	visibleInstances    gpu.Buffer
	visibleInstancesCap uint64
}

func NewGBufferPass(cache *gpu.ShaderCache, device gpu.Device, width, height uint32) (*GBufferPass, error) {
	key := cache.Key("gbuffer.wgsl", "cs_main", nil)

	out, err := device.CreateTexture(gpu.FormatRGBA8UNorm, width, height, gpu.TextureUsageStorage|gpu.TextureUsageSampled)
	if err != nil {
		return nil, fmt.Errorf("passes: creating g-buffer output texture: %w", err)
	}
	return &GBufferPass{ShaderKey: key, Output: out}, nil
}

// Dispatch runs the G-buffer compute pass over ctx's visible instance
// set, one workgroup per 8x8 output tile. When the visibility pre-pass
// ran and found nothing in the frustum, the dispatch is skipped
// entirely; otherwise the surviving instance indices are uploaded as a
// per-frame storage buffer the shader can index against, the way the
// teacher uploads per-frame uniform state ahead of a pipeline dispatch.
func (p *GBufferPass) Dispatch(ctx context.Context, rc rendercontext.RenderContext) error {
	if rc.VisibleInstances != nil {
		if len(rc.VisibleInstances) == 0 {
			return nil
		}
		if err := p.uploadVisibleInstances(rc); err != nil {
			return err
		}
	}

	groupsX := (rc.Width + 7) / 8
	groupsY := (rc.Height + 7) / 8
	return rc.Device.RunComputePass(ctx, "gbuffer", groupsX, groupsY)
}

func (p *GBufferPass) uploadVisibleInstances(rc rendercontext.RenderContext) error {
	data := make([]byte, len(rc.VisibleInstances)*4)
	for i, idx := range rc.VisibleInstances {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(idx))
	}

	if p.visibleInstances == nil || uint64(len(data)) > p.visibleInstancesCap {
		buf, err := rc.Device.CreateBuffer(uint64(len(data)), gpu.UsageStorage|gpu.UsageTransferDst, gpu.ResidencyGPUOnly)
		if err != nil {
			return fmt.Errorf("passes: creating visible-instances buffer: %w", err)
		}
		p.visibleInstances = buf
		p.visibleInstancesCap = uint64(len(data))
	}

	if err := rc.Device.WriteBuffer(p.visibleInstances, 0, data); err != nil {
		return fmt.Errorf("passes: uploading visible instances: %w", err)
	}
	return nil
}
