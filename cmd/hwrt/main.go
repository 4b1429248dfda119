// Command hwrt runs the hardware-ray-traced path tracer core against a
// window, grounded on voxelrt/rt_main.go's glfw bootstrap and callback
// wiring, generalized from App.Update/Render to framegraph.Graph.Frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/asset"
	"github.com/haldor3d/hwrt/internal/framegraph"
	"github.com/haldor3d/hwrt/internal/gpu"
	"github.com/haldor3d/hwrt/internal/gpu/wgpubackend"
	"github.com/haldor3d/hwrt/internal/material"
	"github.com/haldor3d/hwrt/internal/mathutil"
	"github.com/haldor3d/hwrt/internal/passes"
	"github.com/haldor3d/hwrt/internal/rendercontext"
	"github.com/haldor3d/hwrt/internal/scene"
	"github.com/haldor3d/hwrt/internal/texture"
)

func init() {
	runtime.LockOSThread()
}

// builtinImporter serves a single procedural unit-cube scene for any
// path, standing in for the real mesh-parser collaborator §1 places
// out of core scope.
type builtinImporter struct{}

func (builtinImporter) ReadScene(path string) (*asset.ImportedScene, bool) {
	cube := asset.SourceMesh{
		Vertices: []asset.Vertex{
			{Position: mgl32.Vec3{-1, -1, -1}}, {Position: mgl32.Vec3{1, -1, -1}},
			{Position: mgl32.Vec3{1, 1, -1}}, {Position: mgl32.Vec3{-1, 1, -1}},
			{Position: mgl32.Vec3{-1, -1, 1}}, {Position: mgl32.Vec3{1, -1, 1}},
			{Position: mgl32.Vec3{1, 1, 1}}, {Position: mgl32.Vec3{-1, 1, 1}},
		},
		Faces: []asset.Face{
			{0, 1, 2, 3}, {5, 4, 7, 6}, {4, 0, 3, 7},
			{1, 5, 6, 2}, {3, 2, 6, 7}, {4, 5, 1, 0},
		},
		MaterialID: 0,
	}
	return &asset.ImportedScene{
		Meshes:    []asset.SourceMesh{cube},
		Materials: []material.Source{{}},
	}, true
}

// glfwWindow adapts *glfw.Window to framegraph.Window.
type glfwWindow struct{ raw *glfw.Window }

func (w glfwWindow) PollEvents()                 { glfw.PollEvents() }
func (w glfwWindow) FramebufferSize() (int, int) { return w.raw.GetFramebufferSize() }

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func main() {
	meshPath := flag.String("mesh", "", "scene path to load at startup (the built-in importer ignores it and loads a cube)")
	debug := flag.Bool("debug", false, "enable the debug BVH visibility pre-pass")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "hwrt", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	device, surface, err := wgpubackend.New(window)
	if err != nil {
		panic(fmt.Errorf("hwrt: gpu init: %w", err))
	}
	width, height := window.GetFramebufferSize()
	swapchain, err := wgpubackend.NewSwapchain(device.Adapter, device.Raw, surface, uint32(width), uint32(height))
	if err != nil {
		panic(fmt.Errorf("hwrt: swapchain init: %w", err))
	}

	cache := gpu.NewShaderCache("shadercache")

	textures, err := texture.New(device, decodeImage)
	if err != nil {
		panic(fmt.Errorf("hwrt: texture pool init: %w", err))
	}

	sceneResource, err := scene.New(device, builtinImporter{}, textures, scene.DefaultLimits())
	if err != nil {
		panic(fmt.Errorf("hwrt: scene init: %w", err))
	}

	if *meshPath != "" {
		ids, err := sceneResource.AddGeometries(context.Background(), *meshPath)
		if err != nil {
			panic(fmt.Errorf("hwrt: loading %q: %w", *meshPath, err))
		}
		sceneResource.AddBaseInstance(ids)
		desc := scene.SceneDesc{Instances: []scene.SceneInstance{
			{BaseInstanceID: 0, HitGroupID: 0, Transform: mgl32.Ident4()},
		}}
		if err := sceneResource.Commit(context.Background(), desc); err != nil {
			panic(fmt.Errorf("hwrt: committing scene: %w", err))
		}
	}

	gbuffer, err := passes.NewGBufferPass(cache, device, uint32(width), uint32(height))
	if err != nil {
		panic(err)
	}
	pathtrace, err := passes.NewPathTracePass(cache, device, uint32(width), uint32(height))
	if err != nil {
		panic(err)
	}
	composite := passes.NewCompositePass(cache)

	graph := framegraph.NewGraph(device, swapchain, glfwWindow{window}, sceneResource, 2,
		[]framegraph.Pass{gbuffer, pathtrace, composite})

	if *debug && sceneResource.BLASCount() > 0 {
		graph.RebuildDebugBVH([]mathutil.AABB{{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}})
	}

	camPos := mgl32.Vec3{0, 0, 5}
	view := mgl32.LookAtV(camPos, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	for !window.ShouldClose() {
		w, h := window.GetFramebufferSize()
		aspect := float32(1.0)
		if h > 0 {
			aspect = float32(w) / float32(h)
		}
		proj := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 1000.0)
		cam := rendercontext.NewCamera(view, proj, camPos)

		if err := graph.Frame(context.Background(), cam); err != nil {
			fmt.Printf("ERROR: frame failed: %v\n", err)
		}
	}
}
