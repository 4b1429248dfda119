package scene

import (
	"context"
	"fmt"

	"github.com/haldor3d/hwrt/internal/gpu"
)

// megaBuffer wraps a single growable GPU buffer. Growth follows the
// teacher's ensureBuffer pattern (gpu/manager.go): geometric 1.5x
// growth, preserving existing content via CopyBufferToBuffer, because
// mega-buffers are written incrementally as new geometries arrive.
type megaBuffer struct {
	device   gpu.Device
	usage    gpu.BufferUsage
	stride   uint64
	capacity uint64 // element capacity
	buf      gpu.Buffer
}

func newMegaBuffer(device gpu.Device, usage gpu.BufferUsage, stride uint64, initialCapacity uint64) (*megaBuffer, error) {
	buf, err := device.CreateBuffer(initialCapacity*stride, usage, gpu.ResidencyGPUOnly)
	if err != nil {
		return nil, fmt.Errorf("scene: create mega-buffer: %w", err)
	}
	return &megaBuffer{device: device, usage: usage, stride: stride, capacity: initialCapacity, buf: buf}, nil
}

// ensureCapacity grows the buffer (1.5x, at least to need) if its
// current element capacity is insufficient, preserving prior content.
func (m *megaBuffer) ensureCapacity(ctx context.Context, need uint64) error {
	if need <= m.capacity {
		return nil
	}
	newCap := m.capacity + m.capacity/2
	if newCap < need {
		newCap = need
	}
	newBuf, err := m.device.CreateBuffer(newCap*m.stride, m.usage, gpu.ResidencyGPUOnly)
	if err != nil {
		return fmt.Errorf("scene: grow mega-buffer: %w", err)
	}
	if m.buf.Size() > 0 {
		if err := m.device.CopyBufferToBuffer(ctx, newBuf, 0, m.buf, 0, m.buf.Size()); err != nil {
			return fmt.Errorf("scene: preserve mega-buffer content during growth: %w", err)
		}
	}
	m.buf = newBuf
	m.capacity = newCap
	return nil
}

// writeAt uploads data starting at element offset via a staging write.
func (m *megaBuffer) writeAt(offsetElements uint64, data []byte) error {
	return m.device.WriteBuffer(m.buf, offsetElements*m.stride, data)
}
