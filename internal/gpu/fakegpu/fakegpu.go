// Package fakegpu is an in-memory double for internal/gpu.Device,
// letting internal/scene, internal/accel and internal/framegraph be
// unit-tested without a real GPU. Modeled on the pure-Go software
// backend pattern used by the gogpu-wgpu example repo's own test
// harness: buffers are plain byte slices, builds just record their
// inputs.
package fakegpu

import (
	"context"
	"fmt"

	"github.com/haldor3d/hwrt/internal/gpu"
)

type Buffer struct {
	Data     []byte
	usage    gpu.BufferUsage
	residency gpu.Residency
}

func (b *Buffer) Size() uint64           { return uint64(len(b.Data)) }
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// BLASRecord and TLASRecord capture what was built, for assertions in
// tests without needing a real acceleration structure.
type BLASRecord struct {
	Geoms []gpu.GeometryDesc
	Hint  gpu.BuildHint
}

type TLASRecord struct {
	Instances []gpu.InstanceDesc
}

type Device struct {
	Buffers []*Buffer
	BLASes  []BLASRecord
	TLASes  []TLASRecord

	RayDispatches []RayDispatchRecord
	ComputePasses []ComputePassRecord

	// RowPitch is the device-required row-pitch alignment used by
	// texture staging uploads (§4.3).
	RowPitch uint32
}

func New() *Device {
	return &Device{RowPitch: 256}
}

func (d *Device) CreateBuffer(size uint64, usage gpu.BufferUsage, residency gpu.Residency) (gpu.Buffer, error) {
	b := &Buffer{Data: make([]byte, size), usage: usage, residency: residency}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) WriteBuffer(dst gpu.Buffer, offset uint64, data []byte) error {
	b, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("fakegpu: WriteBuffer called with foreign buffer handle")
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("fakegpu: WriteBuffer overflow: offset=%d len=%d cap=%d", offset, len(data), len(b.Data))
	}
	copy(b.Data[offset:], data)
	return nil
}

func (d *Device) CopyBufferToBuffer(_ context.Context, dst gpu.Buffer, dstOffset uint64, src gpu.Buffer, srcOffset uint64, size uint64) error {
	dstB, ok1 := dst.(*Buffer)
	srcB, ok2 := src.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("fakegpu: CopyBufferToBuffer called with foreign buffer handle")
	}
	copy(dstB.Data[dstOffset:dstOffset+size], srcB.Data[srcOffset:srcOffset+size])
	return nil
}

func (d *Device) CreateTexture(format gpu.TextureFormat, width, height uint32, usage gpu.TextureUsage) (gpu.Texture, error) {
	return gpu.Texture{Handle: uint32(len(d.Buffers)), Format: format, Width: width, Height: height}, nil
}

func (d *Device) WriteTexture(dst gpu.Texture, rowPitch uint32, pixels []byte) error {
	if rowPitch%d.RowPitchAlignment() != 0 {
		return fmt.Errorf("fakegpu: row pitch %d not aligned to %d", rowPitch, d.RowPitchAlignment())
	}
	return nil
}

func (d *Device) RowPitchAlignment() uint32 { return d.RowPitch }

func (d *Device) BuildBLAS(_ context.Context, geoms []gpu.GeometryDesc, hint gpu.BuildHint) (gpu.AccelHandle, error) {
	d.BLASes = append(d.BLASes, BLASRecord{Geoms: geoms, Hint: hint})
	return gpu.AccelHandle(len(d.BLASes) - 1), nil
}

func (d *Device) BuildTLAS(_ context.Context, instances []gpu.InstanceDesc) (gpu.AccelHandle, error) {
	d.TLASes = append(d.TLASes, TLASRecord{Instances: instances})
	return gpu.AccelHandle(len(d.TLASes) - 1), nil
}

// RayDispatchRecord and ComputePassRecord capture what was dispatched,
// for assertions in tests without a real command encoder.
type RayDispatchRecord struct {
	TLAS          gpu.AccelHandle
	Width, Height uint32
}

type ComputePassRecord struct {
	Label           string
	GroupsX, GroupsY uint32
}

func (d *Device) DispatchRays(_ context.Context, tlas gpu.AccelHandle, width, height uint32) error {
	d.RayDispatches = append(d.RayDispatches, RayDispatchRecord{TLAS: tlas, Width: width, Height: height})
	return nil
}

func (d *Device) RunComputePass(_ context.Context, label string, groupsX, groupsY uint32) error {
	d.ComputePasses = append(d.ComputePasses, ComputePassRecord{Label: label, GroupsX: groupsX, GroupsY: groupsY})
	return nil
}

func (d *Device) SubmitAndWait(_ context.Context) error { return nil }

// Swapchain is an in-memory double for gpu.Swapchain: a fixed image
// count, round-robin acquire, and a sticky OutOfDate flag a test can
// flip to exercise the render graph's resize path.
type Swapchain struct {
	Images      int
	next        int
	OutOfDate   bool
	Width       uint32
	Height      uint32
	Presents    int
	Acquisitions int
}

func NewSwapchain(images int, width, height uint32) *Swapchain {
	return &Swapchain{Images: images, Width: width, Height: height}
}

func (s *Swapchain) ImageCount() int { return s.Images }

func (s *Swapchain) AcquireNextImage() (int, bool, error) {
	s.Acquisitions++
	if s.OutOfDate {
		return 0, true, nil
	}
	idx := s.next
	s.next = (s.next + 1) % s.Images
	return idx, false, nil
}

func (s *Swapchain) Present(_ int) (bool, error) {
	s.Presents++
	if s.OutOfDate {
		return true, nil
	}
	return false, nil
}

func (s *Swapchain) Resize(width, height uint32) {
	s.Width, s.Height = width, height
	s.OutOfDate = false
}
