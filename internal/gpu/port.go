// Package gpu defines the boundary the core calls out to: buffer,
// texture, acceleration-structure, and swapchain primitives. §6 of the
// spec treats the concrete GPU API bindings as an external
// collaborator; this package is that collaborator's interface, with a
// wgpubackend implementation against cogentcore/webgpu and a fakegpu
// in-memory double for tests.
package gpu

import "context"

// BufferUsage is a bitmask of the usages §6 requires buffers to support.
type BufferUsage uint32

const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageStorage
	UsageConstant
	UsageTransferSrc
	UsageTransferDst
	UsageAccelInput
)

// Residency selects where a buffer's backing memory lives.
type Residency int

const (
	ResidencyGPUOnly Residency = iota
	ResidencyCPUToGPU
	ResidencyCPUOnly
)

// TextureUsage mirrors §6's texture usage set.
type TextureUsage uint32

const (
	TextureUsageSampled TextureUsage = 1 << iota
	TextureUsageStorage
	TextureUsageColorAttachment
	TextureUsageTransferDst
	TextureUsageTransferSrc
)

// TextureFormat is the tagged format enum that stands in for the
// source's deep texture-type hierarchy (§9: "replaced by a single
// tagged Texture record with a format enum").
type TextureFormat int

const (
	FormatRGBA8UNormSRGB TextureFormat = iota
	FormatRGBA8UNorm
	FormatR8UNorm
)

// Buffer is a handle to a GPU buffer created through Device.
type Buffer interface {
	Size() uint64
	Usage() BufferUsage
}

// Texture is a handle to a GPU texture, tagged by format rather than
// represented by a type hierarchy.
type Texture struct {
	Handle uint32
	Format TextureFormat
	Width  uint32
	Height uint32
}

// BuildHint selects the acceleration-structure build strategy (§4.4).
type BuildHint int

const (
	BuildHintFastTrace BuildHint = iota
	BuildHintDeformable
)

// AccelHandle is an opaque handle to a built BLAS or TLAS.
type AccelHandle uint64

// GeometryDesc is one ray-tracing geometry descriptor referencing the
// mega vertex/index buffers, per §4.4 step 1.
type GeometryDesc struct {
	VertexBufferOffset uint64
	VertexCount        uint32
	IndexBufferOffset  uint64
	IndexCount         uint32
	Opaque             bool
}

// InstanceDesc is one TLAS instance, per §4.4 step 2 / §3.
type InstanceDesc struct {
	BLAS            AccelHandle
	Transform3x4    [12]float32
	HitGroupOffset  uint32
	Mask            uint8
	InstanceID      uint32
}

// Swapchain is the presentable-image surface the render graph acquires
// from and presents to once per frame (§4.6 steps 5 and 11).
type Swapchain interface {
	ImageCount() int
	AcquireNextImage() (imageIndex int, outOfDate bool, err error)
	Present(imageIndex int) (outOfDate bool, err error)
	Resize(width, height uint32)
}

// Device is the root GPU API surface the core consumes.
type Device interface {
	CreateBuffer(size uint64, usage BufferUsage, residency Residency) (Buffer, error)
	WriteBuffer(dst Buffer, offset uint64, data []byte) error
	CopyBufferToBuffer(ctx context.Context, dst Buffer, dstOffset uint64, src Buffer, srcOffset uint64, size uint64) error
	CreateTexture(format TextureFormat, width, height uint32, usage TextureUsage) (Texture, error)
	WriteTexture(dst Texture, rowPitch uint32, pixels []byte) error
	RowPitchAlignment() uint32

	BuildBLAS(ctx context.Context, geoms []GeometryDesc, hint BuildHint) (AccelHandle, error)
	BuildTLAS(ctx context.Context, instances []InstanceDesc) (AccelHandle, error)

	// DispatchRays issues one ray-gen dispatch against tlas, per §4.8's
	// path-trace pass, writing width*height rays' worth of output into
	// whatever storage texture the caller most recently bound.
	DispatchRays(ctx context.Context, tlas AccelHandle, width, height uint32) error

	// RunComputePass issues one labeled compute dispatch (§4.7's
	// G-buffer pass, §4.9's composite pass); label identifies which
	// pipeline/bind-group set to use, resolved by the backend.
	RunComputePass(ctx context.Context, label string, groupsX, groupsY uint32) error

	SubmitAndWait(ctx context.Context) error
}
