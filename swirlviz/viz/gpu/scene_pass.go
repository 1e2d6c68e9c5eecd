package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/swirl"
	"github.com/gekko3d/swirl/swirlviz/viz/shaders"
)

// DepthFormat is the depth attachment format of the scene pass.
const DepthFormat = wgpu.TextureFormatDepth32Float

// Instance buffers grow in steps so steady trail growth does not
// reallocate every frame.
const instanceGrowth = 128

// CameraUniform is the camera data both scene shaders consume.
type CameraUniform struct {
	ViewPos  [4]float32
	ViewProj mgl32.Mat4
}

// ScenePass draws the particle spheres and their fading trail segments
// into an offscreen color target, with depth-tested opaque spheres and
// alpha-blended trails on top.
type ScenePass struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	spherePipeline *wgpu.RenderPipeline
	trailPipeline  *wgpu.RenderPipeline

	cameraBuffer    *wgpu.Buffer
	cameraBindGroup *wgpu.BindGroup

	sphereMesh    *Mesh
	segmentBuffer *wgpu.Buffer

	sphereInstances  *wgpu.Buffer
	sphereCap        int
	sphereCount      int
	segmentInstances *wgpu.Buffer
	segmentCap       int
	segmentCount     int

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

func NewScenePass(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, width, height, meshNx, meshNz uint32) (*ScenePass, error) {
	sceneShader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Scene Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SceneWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("create scene shader: %w", err)
	}
	defer sceneShader.Release()

	trailShader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Trail Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TrailWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("create trail shader: %w", err)
	}
	defer trailShader.Release()

	cameraLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: uint64(unsafe.Sizeof(CameraUniform{})),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("create camera bind group layout: %w", err)
	}
	defer cameraLayout.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{cameraLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create scene pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	vertexLayout := wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(Vertex{})),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
	instanceLayout := wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(swirl.InstanceRecord{})),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 7},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 8},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 9},
			{Format: wgpu.VertexFormatUint32, Offset: 80, ShaderLocation: 10},
			{Format: wgpu.VertexFormatUint32, Offset: 84, ShaderLocation: 11},
		},
	}

	spherePipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Sphere Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     sceneShader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout, instanceLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     sceneShader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: depthState(true),
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create sphere pipeline: %w", err)
	}

	trailPipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Trail Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     trailShader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout, instanceLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     trailShader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						Operation: wgpu.BlendOperationAdd,
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					},
					Alpha: wgpu.BlendComponent{
						Operation: wgpu.BlendOperationAdd,
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: depthState(false),
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create trail pipeline: %w", err)
	}

	cameraBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Buffer",
		Size:  uint64(unsafe.Sizeof(CameraUniform{})),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create camera buffer: %w", err)
	}

	cameraBindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group",
		Layout: cameraLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  cameraBuffer,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("create camera bind group: %w", err)
	}

	sphereMesh, err := NewSphereMesh(device, meshNx, meshNz)
	if err != nil {
		return nil, err
	}

	segmentBuffer, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label: "Trail Segment Vertices",
		Contents: wgpu.ToBytes([]Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
		}),
		Usage: wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("create segment vertex buffer: %w", err)
	}

	p := &ScenePass{
		device:          device,
		queue:           queue,
		spherePipeline:  spherePipeline,
		trailPipeline:   trailPipeline,
		cameraBuffer:    cameraBuffer,
		cameraBindGroup: cameraBindGroup,
		sphereMesh:      sphereMesh,
		segmentBuffer:   segmentBuffer,
	}
	if err := p.Resize(width, height); err != nil {
		return nil, err
	}
	return p, nil
}

func depthState(writeEnabled bool) *wgpu.DepthStencilState {
	stencil := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	return &wgpu.DepthStencilState{
		Format:            DepthFormat,
		DepthWriteEnabled: writeEnabled,
		DepthCompare:      wgpu.CompareFunctionLess,
		StencilFront:      stencil,
		StencilBack:       stencil,
		StencilReadMask:   0xFFFFFFFF,
		StencilWriteMask:  0xFFFFFFFF,
	}
}

// Resize recreates the depth target to match the surface.
func (p *ScenePass) Resize(width, height uint32) error {
	if p.depthView != nil {
		p.depthView.Release()
		p.depthTexture.Release()
		p.depthView = nil
		p.depthTexture = nil
	}
	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Scene Depth Texture",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("create depth view: %w", err)
	}
	p.depthTexture = tex
	p.depthView = view
	return nil
}

// UpdateCamera uploads this frame's camera uniform.
func (p *ScenePass) UpdateCamera(cam CameraUniform) {
	p.queue.WriteBuffer(p.cameraBuffer, 0, wgpu.ToBytes([]CameraUniform{cam}))
}

// UploadInstances copies the frame's records into the instance buffers,
// growing them when the counts outrun capacity.
func (p *ScenePass) UploadInstances(inst *swirl.Instances) error {
	var err error
	p.sphereInstances, p.sphereCap, err = p.uploadRecords("Sphere Instance Buffer", p.sphereInstances, p.sphereCap, inst.Spheres)
	if err != nil {
		return err
	}
	p.sphereCount = len(inst.Spheres)

	p.segmentInstances, p.segmentCap, err = p.uploadRecords("Trail Instance Buffer", p.segmentInstances, p.segmentCap, inst.Segments)
	if err != nil {
		return err
	}
	p.segmentCount = len(inst.Segments)
	return nil
}

func (p *ScenePass) uploadRecords(label string, buf *wgpu.Buffer, capacity int, recs []swirl.InstanceRecord) (*wgpu.Buffer, int, error) {
	if len(recs) == 0 {
		return buf, capacity, nil
	}
	if buf == nil || capacity < len(recs) {
		if buf != nil {
			buf.Release()
		}
		capacity = len(recs) + instanceGrowth
		stride := int(unsafe.Sizeof(swirl.InstanceRecord{}))
		var err error
		buf, err = p.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  uint64(capacity * stride),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("create %s: %w", label, err)
		}
	}
	p.queue.WriteBuffer(buf, 0, wgpu.ToBytes(recs))
	return buf, capacity, nil
}

// Record encodes the scene pass into encoder, rendering into target.
func (p *ScenePass) Record(encoder *wgpu.CommandEncoder, target *wgpu.TextureView) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Scene Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            p.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})

	if p.sphereCount > 0 && p.sphereInstances != nil {
		pass.SetPipeline(p.spherePipeline)
		pass.SetBindGroup(0, p.cameraBindGroup, nil)
		pass.SetVertexBuffer(0, p.sphereMesh.VertexBuffer, 0, p.sphereMesh.VertexBuffer.GetSize())
		pass.SetVertexBuffer(1, p.sphereInstances, 0, p.sphereInstances.GetSize())
		pass.SetIndexBuffer(p.sphereMesh.IndexBuffer, wgpu.IndexFormatUint32, 0, p.sphereMesh.IndexBuffer.GetSize())
		pass.DrawIndexed(p.sphereMesh.IndexCount, uint32(p.sphereCount), 0, 0, 0)
	}
	if p.segmentCount > 0 && p.segmentInstances != nil {
		pass.SetPipeline(p.trailPipeline)
		pass.SetBindGroup(0, p.cameraBindGroup, nil)
		pass.SetVertexBuffer(0, p.segmentBuffer, 0, p.segmentBuffer.GetSize())
		pass.SetVertexBuffer(1, p.segmentInstances, 0, p.segmentInstances.GetSize())
		pass.Draw(2, uint32(p.segmentCount), 0, 0)
	}

	if err := pass.End(); err != nil {
		return fmt.Errorf("end scene pass: %w", err)
	}
	return nil
}

func (p *ScenePass) Release() {
	if p.depthView != nil {
		p.depthView.Release()
		p.depthTexture.Release()
	}
	if p.sphereInstances != nil {
		p.sphereInstances.Release()
	}
	if p.segmentInstances != nil {
		p.segmentInstances.Release()
	}
	p.segmentBuffer.Release()
	p.sphereMesh.Release()
	p.cameraBindGroup.Release()
	p.cameraBuffer.Release()
	p.trailPipeline.Release()
	p.spherePipeline.Release()
}
