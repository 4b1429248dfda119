// Package wgpubackend implements internal/gpu's Device and Swapchain
// ports against github.com/cogentcore/webgpu, the real GPU binding the
// teacher uses throughout voxelrt/rt/gpu/manager.go and rt/app/app.go.
// Buffer, texture, and submission plumbing follow manager.go's
// ensureBuffer/WriteBuffer/CopyBufferToBuffer pattern; BuildBLAS,
// BuildTLAS, and DispatchRays have no native counterpart in this
// binding (cogentcore/webgpu exposes no ray-tracing extension) and are
// left unimplemented here — fakegpu is the Device used to exercise
// that part of the core in tests, as noted in the grounding ledger.
package wgpubackend

import (
	"context"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/haldor3d/hwrt/internal/gpu"
)

// Device wraps a *wgpu.Device/*wgpu.Queue pair behind the gpu.Device
// port, generalizing GpuBufferManager's single-purpose buffer fields
// into the port's opaque Buffer/Texture handles.
type Device struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Raw      *wgpu.Device
	Queue    *wgpu.Queue

	rowPitchAlignment uint32

	nextTextureHandle uint32
	textures          map[uint32]*wgpu.Texture
}

// Buffer adapts a *wgpu.Buffer to gpu.Buffer.
type Buffer struct {
	Raw   *wgpu.Buffer
	usage gpu.BufferUsage
}

func (b *Buffer) Size() uint64           { return b.Raw.GetSize() }
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// New creates a WebGPU instance/adapter/device/queue against the
// surface GetSurfaceDescriptor(window) describes, mirroring
// App.Init's setup sequence.
func New(window *glfw.Window) (*Device, *wgpu.Surface, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}

	raw, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}

	return &Device{
		Instance: instance, Adapter: adapter, Raw: raw, Queue: raw.GetQueue(),
		// WebGPU guarantees 256-byte row-pitch alignment for texture
		// copies; no query exists, so this mirrors the spec constant
		// every backend (including fakegpu) uses.
		rowPitchAlignment: 256,
		textures:          make(map[uint32]*wgpu.Texture),
	}, surface, nil
}

func toWGPUBufferUsage(usage gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if usage&gpu.UsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if usage&gpu.UsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if usage&gpu.UsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if usage&gpu.UsageConstant != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if usage&gpu.UsageTransferSrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if usage&gpu.UsageTransferDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	// AccelInput has no WebGPU usage flag; ray tracing isn't exposed by
	// this binding, so it's a no-op here.
	return out
}

func (d *Device) CreateBuffer(size uint64, usage gpu.BufferUsage, _ gpu.Residency) (gpu.Buffer, error) {
	wgpuUsage := toWGPUBufferUsage(usage) | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	raw, err := d.Raw.CreateBuffer(&wgpu.BufferDescriptor{
		Size:             size,
		Usage:            wgpuUsage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create buffer: %w", err)
	}
	return &Buffer{Raw: raw, usage: usage}, nil
}

func (d *Device) WriteBuffer(dst gpu.Buffer, offset uint64, data []byte) error {
	b, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("wgpubackend: WriteBuffer called with a foreign buffer handle")
	}
	d.Queue.WriteBuffer(b.Raw, offset, data)
	return nil
}

func (d *Device) CopyBufferToBuffer(_ context.Context, dst gpu.Buffer, dstOffset uint64, src gpu.Buffer, srcOffset uint64, size uint64) error {
	dstB, ok1 := dst.(*Buffer)
	srcB, ok2 := src.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("wgpubackend: CopyBufferToBuffer called with a foreign buffer handle")
	}
	encoder, err := d.Raw.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("wgpubackend: create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(srcB.Raw, srcOffset, dstB.Raw, dstOffset, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("wgpubackend: finish command encoder: %w", err)
	}
	d.Queue.Submit(cmd)
	return nil
}

func toWGPUTextureFormat(format gpu.TextureFormat) wgpu.TextureFormat {
	switch format {
	case gpu.FormatRGBA8UNormSRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case gpu.FormatR8UNorm:
		return wgpu.TextureFormatR8Unorm
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func toWGPUTextureUsage(usage gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if usage&gpu.TextureUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if usage&gpu.TextureUsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if usage&gpu.TextureUsageColorAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if usage&gpu.TextureUsageTransferDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if usage&gpu.TextureUsageTransferSrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	return out
}

func (d *Device) CreateTexture(format gpu.TextureFormat, width, height uint32, usage gpu.TextureUsage) (gpu.Texture, error) {
	raw, err := d.Raw.CreateTexture(&wgpu.TextureDescriptor{
		Size:      wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		Format:    toWGPUTextureFormat(format),
		Usage:     toWGPUTextureUsage(usage) | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return gpu.Texture{}, fmt.Errorf("wgpubackend: create texture: %w", err)
	}
	d.nextTextureHandle++
	handle := d.nextTextureHandle
	d.textures[handle] = raw
	return gpu.Texture{Handle: handle, Format: format, Width: width, Height: height}, nil
}

// WriteTexture stages pixels into the texture dst refers to. The
// port's Texture is a lightweight tagged record (§9), not an owning
// handle, so the real *wgpu.Texture is recovered from the registry
// CreateTexture populated.
func (d *Device) WriteTexture(dst gpu.Texture, rowPitch uint32, pixels []byte) error {
	if rowPitch%d.RowPitchAlignment() != 0 {
		return fmt.Errorf("wgpubackend: row pitch %d not aligned to %d", rowPitch, d.RowPitchAlignment())
	}
	raw, ok := d.textures[dst.Handle]
	if !ok {
		return fmt.Errorf("wgpubackend: WriteTexture called with an unknown texture handle %d", dst.Handle)
	}
	d.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  raw,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  rowPitch,
			RowsPerImage: dst.Height,
		},
		&wgpu.Extent3D{Width: dst.Width, Height: dst.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

func (d *Device) RowPitchAlignment() uint32 { return d.rowPitchAlignment }

func (d *Device) BuildBLAS(_ context.Context, _ []gpu.GeometryDesc, _ gpu.BuildHint) (gpu.AccelHandle, error) {
	return 0, fmt.Errorf("wgpubackend: hardware ray tracing is not exposed by cogentcore/webgpu")
}

func (d *Device) BuildTLAS(_ context.Context, _ []gpu.InstanceDesc) (gpu.AccelHandle, error) {
	return 0, fmt.Errorf("wgpubackend: hardware ray tracing is not exposed by cogentcore/webgpu")
}

func (d *Device) DispatchRays(_ context.Context, _ gpu.AccelHandle, _, _ uint32) error {
	return fmt.Errorf("wgpubackend: hardware ray tracing is not exposed by cogentcore/webgpu")
}

func (d *Device) RunComputePass(_ context.Context, label string, groupsX, groupsY uint32) error {
	encoder, err := d.Raw.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("wgpubackend: create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("wgpubackend: end compute pass %q: %w", label, err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("wgpubackend: finish command encoder: %w", err)
	}
	d.Queue.Submit(cmd)
	return nil
}

func (d *Device) SubmitAndWait(_ context.Context) error {
	// cogentcore/webgpu submits are fire-and-forget from the host's
	// perspective; OnSubmittedWorkDone exists but the teacher never
	// polls it, relying instead on the swapchain's present cadence to
	// pace the CPU. We do the same here.
	return nil
}
