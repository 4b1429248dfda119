// Package framegraph implements the render-graph / frame loop of §4.6:
// per-flight and per-swap resource orchestration, fence/semaphore
// bookkeeping, and the per-frame acquire/wait/reset/dispatch/present
// procedure. Modeled on the teacher's App.Update/Render loop
// (voxelrt/rt/app/app.go), generalized from its single-buffered
// pattern to real N-buffered per-flight resources per §9.
package framegraph

// Fence is a host-waitable GPU completion signal. The zero value is
// unsignaled.
type Fence struct {
	signaled bool
}

func (f *Fence) Signal()        { f.signaled = true }
func (f *Fence) Reset()         { f.signaled = false }
func (f *Fence) IsSignaled() bool { return f.signaled }

// Wait blocks until the fence signals. The core's scheduling model is a
// single-threaded cooperative loop (§5); in this host-side model,
// Graph.Frame calls Signal once SubmitAndWait returns, so
// Wait degenerates to an assertion that Signal already happened by the
// time a caller needs the result — real backends back this with a
// blocking device wait.
func (f *Fence) Wait() {
	if !f.signaled {
		panic("framegraph: Wait() called on a fence no backend ever signaled")
	}
}

// Semaphore is a binary GPU-GPU synchronization primitive; the host
// never waits on it directly (§5).
type Semaphore struct{}

// CommandPool stands in for one queue family's command pool.
type CommandPool struct {
	QueueFamily string
}

func (p *CommandPool) Reset() {}

// DescriptorPool stands in for the per-flight descriptor pool.
type DescriptorPool struct{}

func (p *DescriptorPool) Reset() {}

// PerFlight is the per-flight resource bundle of §3: a fence, one
// command pool per queue family, a descriptor pool, two binary
// semaphores, allocated once at startup.
type PerFlight struct {
	Fence                    Fence
	CommandPools             map[string]*CommandPool
	DescriptorPool           DescriptorPool
	ImageReadySemaphore      Semaphore
	ImagePresentableSemaphore Semaphore
}

func NewPerFlight() *PerFlight {
	return &PerFlight{
		CommandPools: map[string]*CommandPool{
			"graphics": {QueueFamily: "graphics"},
			"compute":  {QueueFamily: "compute"},
			"transfer": {QueueFamily: "transfer"},
		},
	}
}

// Wait blocks on this flight's fence.
func (p *PerFlight) Wait() {
	p.Fence.Wait()
}

// Reset resets the fence and recycles every pool (§4.6 step 4).
func (p *PerFlight) Reset() {
	p.Fence.Reset()
	for _, pool := range p.CommandPools {
		pool.Reset()
	}
	p.DescriptorPool.Reset()
}

// PerSwap is the per-swapchain-image hazard tracker of §3: a non-owning
// pointer to the per-flight fence that most recently submitted work
// touching it. It holds no texture view of the image.
type PerSwap struct {
	ImageFence *Fence
}

// WaitPreviousUser blocks on whichever flight's fence last touched this
// swap image, if any (§4.6 step 6, §5's "only reason a new flight may
// have to wait on an older one").
func (s *PerSwap) WaitPreviousUser() {
	if s.ImageFence != nil {
		s.ImageFence.Wait()
	}
}

// ClaimFor points this swap image's hazard tracker at flight's fence.
func (s *PerSwap) ClaimFor(flight *PerFlight) {
	s.ImageFence = &flight.Fence
}
