package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GetSurfaceDescriptor returns the platform surface descriptor for w,
// the same indirection app.go uses to keep glfw's platform handles out
// of the rest of the GPU layer.
func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}

// Swapchain adapts a *wgpu.Surface to gpu.Swapchain, tracking the
// configuration App.Init/App.Resize build (format, present mode, size)
// so AcquireNextImage/Present/Resize can reconfigure it in place.
type Swapchain struct {
	Adapter *wgpu.Adapter
	Device  *wgpu.Device
	Surface *wgpu.Surface
	Config  *wgpu.SurfaceConfiguration

	current *wgpu.SurfaceTexture
}

// NewSwapchain configures surface at width/height using its first
// supported format/alpha-mode and FIFO (vsync) presentation, matching
// App.Init's Config construction.
func NewSwapchain(adapter *wgpu.Adapter, device *wgpu.Device, surface *wgpu.Surface, width, height uint32) (*Swapchain, error) {
	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("wgpubackend: surface reports no supported formats")
	}
	cfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, cfg)
	return &Swapchain{Adapter: adapter, Device: device, Surface: surface, Config: cfg}, nil
}

func (s *Swapchain) ImageCount() int { return 1 }

func (s *Swapchain) AcquireNextImage() (int, bool, error) {
	tex, err := s.Surface.GetCurrentTexture()
	if err != nil {
		return 0, true, fmt.Errorf("wgpubackend: acquire swapchain image: %w", err)
	}
	s.current = tex
	return 0, false, nil
}

func (s *Swapchain) Present(_ int) (bool, error) {
	s.Surface.Present()
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
	return false, nil
}

func (s *Swapchain) Resize(width, height uint32) {
	s.Config.Width, s.Config.Height = width, height
	s.Surface.Configure(s.Adapter, s.Device, s.Config)
}
