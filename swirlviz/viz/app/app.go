package app

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swirl"
	"github.com/gekko3d/swirl/swirlviz/viz/core"
	"github.com/gekko3d/swirl/swirlviz/viz/gpu"
	"github.com/gekko3d/swirl/swirlviz/viz/shaders"
)

const hudFontSize = 18

// Options carries the render-side configuration the App needs beyond
// the particle system itself.
type Options struct {
	Radius      float32
	MeshNx      uint32
	MeshNz      uint32
	ModelName   string
	Screenshots string
	Log         swirl.Logger
}

// App owns the window's GPU state and drives one simulation plus render
// step per frame. Construct with NewApp, then Init before the first
// Frame call.
type App struct {
	window *glfw.Window
	log    swirl.Logger
	opts   Options

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	config   *wgpu.SurfaceConfiguration

	scene *gpu.ScenePass
	post  *gpu.PostPass

	sys       *swirl.System
	instances swirl.Instances

	camera  *core.Camera
	overlay *core.Overlay

	textPipeline  *wgpu.RenderPipeline
	textAtlas     *wgpu.Texture
	textAtlasView *wgpu.TextureView
	textSampler   *wgpu.Sampler
	textBindGroup *wgpu.BindGroup
	textBuffer    *wgpu.Buffer
	textCount     uint32

	paused   bool
	stepOnce bool
	filterOn bool

	captured   bool
	haveCursor bool
	lastX      float64
	lastY      float64

	lastTime   float64
	frameCount int
	fps        float64
	fpsTime    float64
}

func NewApp(window *glfw.Window, sys *swirl.System, opts Options) *App {
	if opts.Log == nil {
		opts.Log = swirl.NewNopLogger()
	}
	if opts.Screenshots == "" {
		opts.Screenshots = "screenshots"
	}
	return &App{
		window: window,
		log:    opts.Log,
		opts:   opts,
		sys:    sys,
		camera: core.NewCamera(),
	}
}

func (a *App) Init() error {
	a.instance = wgpu.CreateInstance(nil)
	a.surface = a.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.window))

	adapter, err := a.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.adapter = adapter

	a.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.queue = a.device.GetQueue()

	width, height := a.window.GetFramebufferSize()
	caps := a.surface.GetCapabilities(adapter)
	a.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.surface.Configure(adapter, a.device, a.config)
	a.log.Infof("surface configured (%dx%d, format %v)", width, height, a.config.Format)

	a.scene, err = gpu.NewScenePass(a.device, a.queue, a.config.Format,
		a.config.Width, a.config.Height, a.opts.MeshNx, a.opts.MeshNz)
	if err != nil {
		return err
	}
	a.post, err = gpu.NewPostPass(a.device, a.queue, a.config.Format,
		a.config.Width, a.config.Height, stockFirstFlags(), stockSecondFlags())
	if err != nil {
		return err
	}

	a.overlay, err = core.NewOverlay(hudFontSize)
	if err != nil {
		return err
	}
	if err := a.setupTextResources(); err != nil {
		return err
	}

	a.installCallbacks()
	a.lastTime = glfw.GetTime()
	return nil
}

// With the enable bit clear both invocations are identity copies; the
// axis bits only pick the blur direction once F turns the filter on.
func stockFirstFlags() uint32  { return 0 }
func stockSecondFlags() uint32 { return gpu.PostFlagHorizontal }

func (a *App) setupTextResources() error {
	bounds := a.overlay.Atlas.Bounds()
	w, h := uint32(bounds.Dx()), uint32(bounds.Dy())

	var err error
	a.textAtlas, err = a.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text atlas: %w", err)
	}
	a.queue.WriteTexture(a.textAtlas.AsImageCopy(), a.overlay.Atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  w,
		RowsPerImage: h,
	}, &wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1})

	a.textAtlasView, err = a.textAtlas.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create text atlas view: %w", err)
	}

	a.textSampler, err = a.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Text Sampler",
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create text sampler: %w", err)
	}

	textMod, err := a.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("create text shader: %w", err)
	}
	defer textMod.Release()

	a.textPipeline, err = a.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     textMod,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(core.TextVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     textMod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: a.config.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline: %w", err)
	}

	layout := a.textPipeline.GetBindGroupLayout(0)
	defer layout.Release()
	a.textBindGroup, err = a.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Text Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: a.textAtlasView},
			{Binding: 1, Sampler: a.textSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create text bind group: %w", err)
	}
	return nil
}

func (a *App) installCallbacks() {
	a.window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		a.Resize(w, h)
	})

	a.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			a.paused = !a.paused
		case glfw.KeyPeriod:
			if a.paused {
				a.stepOnce = true
			}
		case glfw.KeyF:
			a.toggleFilter()
		case glfw.KeyEnter:
			a.screenshot()
		case glfw.KeyTab:
			a.toggleCapture(w)
		}
	})

	a.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !a.captured {
			a.haveCursor = false
			return
		}
		if a.haveCursor {
			a.camera.Drag(float32(x-a.lastX), float32(y-a.lastY))
		}
		a.lastX, a.lastY = x, y
		a.haveCursor = true
	})

	a.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		a.camera.Zoom(float32(yoff))
	})
}

func (a *App) toggleFilter() {
	a.filterOn = !a.filterOn
	if a.filterOn {
		a.post.SetFlags(gpu.PostFlagEnabled, gpu.PostFlagEnabled|gpu.PostFlagHorizontal)
	} else {
		a.post.SetFlags(stockFirstFlags(), stockSecondFlags())
	}
	a.log.Debugf("blur filter enabled: %v", a.filterOn)
}

func (a *App) screenshot() {
	path, err := a.post.SaveScreenshot(a.config.Width, a.config.Height, a.opts.Screenshots)
	if err != nil {
		a.log.Errorf("screenshot: %v", err)
		return
	}
	a.log.Infof("saved %s", path)
}

func (a *App) toggleCapture(w *glfw.Window) {
	a.captured = !a.captured
	if a.captured {
		w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	a.haveCursor = false
}

// Resize reconfigures the surface and all size-dependent targets. Zero
// sizes (minimized window) are ignored.
func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.config.Width = uint32(w)
	a.config.Height = uint32(h)
	a.surface.Configure(a.adapter, a.device, a.config)
	if err := a.scene.Resize(a.config.Width, a.config.Height); err != nil {
		a.log.Errorf("resize scene targets: %v", err)
	}
	if err := a.post.Resize(a.config.Width, a.config.Height); err != nil {
		a.log.Errorf("resize post targets: %v", err)
	}
}

// Frame advances the simulation (unless paused) and renders once.
func (a *App) Frame() {
	now := glfw.GetTime()
	dt := now - a.lastTime
	a.lastTime = now
	if dt > 0.1 {
		dt = 0.1
	}

	a.camera.Update(float32(dt))
	if !a.paused || a.stepOnce {
		a.sys.Step(dt)
		a.stepOnce = false
	}

	swirl.BuildInstances(a.sys, a.opts.Radius, &a.instances)
	if err := a.scene.UploadInstances(&a.instances); err != nil {
		a.log.Errorf("upload instances: %v", err)
		return
	}

	eye := a.camera.Eye()
	a.scene.UpdateCamera(gpu.CameraUniform{
		ViewPos:  [4]float32{eye.X(), eye.Y(), eye.Z(), 1},
		ViewProj: a.camera.ViewProj(a.config.Width, a.config.Height),
	})
	a.updateHUD()

	target, err := a.surface.GetCurrentTexture()
	if err != nil {
		a.log.Warnf("surface texture lost, reconfiguring: %v", err)
		a.surface.Configure(a.adapter, a.device, a.config)
		return
	}
	defer target.Release()
	view, err := target.CreateView(nil)
	if err != nil {
		a.log.Errorf("surface view: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.device.CreateCommandEncoder(nil)
	if err != nil {
		a.log.Errorf("command encoder: %v", err)
		return
	}
	if err := a.scene.Record(encoder, a.post.PingView()); err != nil {
		a.log.Errorf("record scene: %v", err)
		return
	}
	if err := a.post.Record(encoder, view, a.drawOverlay); err != nil {
		a.log.Errorf("record post: %v", err)
		return
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.log.Errorf("finish encoder: %v", err)
		return
	}
	a.queue.Submit(cmd)
	a.surface.Present()

	a.frameCount++
	a.fpsTime += dt
	if a.fpsTime >= 1.0 {
		a.fps = float64(a.frameCount) / a.fpsTime
		a.frameCount = 0
		a.fpsTime = 0
	}
}

func (a *App) updateHUD() {
	status := "running"
	if a.paused {
		status = "paused"
	}
	filter := "off"
	if a.filterOn {
		filter = "on"
	}
	text := fmt.Sprintf("%.0f fps  %s\n%d particles  %d lit\nmodel %s  blur %s",
		a.fps, status, a.sys.Len(), a.sys.Lit(), a.opts.ModelName, filter)

	verts := a.overlay.BuildVertices([]core.TextItem{{
		Text:     text,
		Position: [2]float32{10, 10},
		Scale:    1,
		Color:    [4]float32{1, 1, 1, 0.85},
	}}, int(a.config.Width), int(a.config.Height))
	if len(verts) == 0 {
		a.textCount = 0
		return
	}

	size := uint64(len(verts)) * uint64(unsafe.Sizeof(core.TextVertex{}))
	if a.textBuffer == nil || a.textBuffer.GetSize() < size {
		if a.textBuffer != nil {
			a.textBuffer.Release()
		}
		var err error
		a.textBuffer, err = a.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Text VB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			a.log.Errorf("create text buffer: %v", err)
			a.textCount = 0
			return
		}
	}
	a.queue.WriteBuffer(a.textBuffer, 0, wgpu.ToBytes(verts))
	a.textCount = uint32(len(verts))
}

func (a *App) drawOverlay(pass *wgpu.RenderPassEncoder) {
	if a.textCount == 0 || a.textBuffer == nil {
		return
	}
	pass.SetPipeline(a.textPipeline)
	pass.SetBindGroup(0, a.textBindGroup, nil)
	pass.SetVertexBuffer(0, a.textBuffer, 0, a.textBuffer.GetSize())
	pass.Draw(a.textCount, 1, 0, 0)
}

func (a *App) Release() {
	if a.textBuffer != nil {
		a.textBuffer.Release()
	}
	if a.textBindGroup != nil {
		a.textBindGroup.Release()
	}
	if a.textPipeline != nil {
		a.textPipeline.Release()
	}
	if a.textSampler != nil {
		a.textSampler.Release()
	}
	if a.textAtlasView != nil {
		a.textAtlasView.Release()
	}
	if a.textAtlas != nil {
		a.textAtlas.Release()
	}
	if a.post != nil {
		a.post.Release()
	}
	if a.scene != nil {
		a.scene.Release()
	}
	if a.instance != nil {
		a.instance.Release()
	}
}
