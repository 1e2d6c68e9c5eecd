package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/swirl/swirlviz/viz/shaders"
)

// Post filter flag bits, mirrored by the post shader.
const (
	PostFlagEnabled    uint32 = 1 << 0
	PostFlagHorizontal uint32 = 1 << 1
)

// PostPass runs the fullscreen filter twice per frame: the scene lands
// in the ping target, the first invocation filters ping into pong, and
// the second filters pong onto the caller's target. Each invocation is
// either an identity copy or a 3-tap box blur along one axis, chosen by
// its flags uniform.
type PostPass struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	format wgpu.TextureFormat

	pipeline *wgpu.RenderPipeline
	quad     *Mesh
	sampler  *wgpu.Sampler

	firstFlagsBuffer  *wgpu.Buffer
	secondFlagsBuffer *wgpu.Buffer
	firstFlagsGroup   *wgpu.BindGroup
	secondFlagsGroup  *wgpu.BindGroup

	pingTexture *wgpu.Texture
	pingView    *wgpu.TextureView
	pingGroup   *wgpu.BindGroup
	pongTexture *wgpu.Texture
	pongView    *wgpu.TextureView
	pongGroup   *wgpu.BindGroup
}

func NewPostPass(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, width, height uint32, firstFlags, secondFlags uint32) (*PostPass, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Post Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PostWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("create post shader: %w", err)
	}
	defer shader.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Post Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(QuadVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create post pipeline: %w", err)
	}

	quad, err := NewQuadMesh(device)
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Post Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create post sampler: %w", err)
	}

	p := &PostPass{
		device:   device,
		queue:    queue,
		format:   format,
		pipeline: pipeline,
		quad:     quad,
		sampler:  sampler,
	}

	p.firstFlagsBuffer, p.firstFlagsGroup, err = p.createFlagsGroup("Post Flags A", firstFlags)
	if err != nil {
		return nil, err
	}
	p.secondFlagsBuffer, p.secondFlagsGroup, err = p.createFlagsGroup("Post Flags B", secondFlags)
	if err != nil {
		return nil, err
	}

	if err := p.Resize(width, height); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PostPass) createFlagsGroup(label string, flags uint32) (*wgpu.Buffer, *wgpu.BindGroup, error) {
	buf, err := p.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes([]uint32{flags}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s buffer: %w", label, err)
	}

	layout := p.pipeline.GetBindGroupLayout(1)
	defer layout.Release()
	group, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buf,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return buf, group, nil
}

// SetFlags updates both invocations' filter flags.
func (p *PostPass) SetFlags(first, second uint32) {
	p.queue.WriteBuffer(p.firstFlagsBuffer, 0, wgpu.ToBytes([]uint32{first}))
	p.queue.WriteBuffer(p.secondFlagsBuffer, 0, wgpu.ToBytes([]uint32{second}))
}

// PingView is the offscreen color target the scene pass renders into.
func (p *PostPass) PingView() *wgpu.TextureView {
	return p.pingView
}

// Resize recreates the ping and pong targets to match the surface.
func (p *PostPass) Resize(width, height uint32) error {
	p.releaseTargets()

	var err error
	p.pingTexture, p.pingView, p.pingGroup, err = p.createTarget("Post Ping", width, height)
	if err != nil {
		return err
	}
	p.pongTexture, p.pongView, p.pongGroup, err = p.createTarget("Post Pong", width, height)
	if err != nil {
		return err
	}
	return nil
}

func (p *PostPass) createTarget(label string, width, height uint32) (*wgpu.Texture, *wgpu.TextureView, *wgpu.BindGroup, error) {
	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        p.format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}

	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	group, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, nil, nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return tex, view, group, nil
}

// Record encodes both invocations: ping filtered into pong, then pong
// filtered onto target. A non-nil overlay is drawn into the final pass
// after the filtered quad, on top of the image.
func (p *PostPass) Record(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, overlay func(*wgpu.RenderPassEncoder)) error {
	if err := p.recordStage(encoder, "Post Pass A", p.pingGroup, p.firstFlagsGroup, p.pongView, nil); err != nil {
		return err
	}
	return p.RecordFinal(encoder, target, overlay)
}

// RecordFinal encodes only the second invocation, reading the pong
// intermediate. The screenshot path uses it to reproduce the presented
// image in a private texture.
func (p *PostPass) RecordFinal(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, overlay func(*wgpu.RenderPassEncoder)) error {
	return p.recordStage(encoder, "Post Pass B", p.pongGroup, p.secondFlagsGroup, target, overlay)
}

func (p *PostPass) recordStage(encoder *wgpu.CommandEncoder, label string, source, flags *wgpu.BindGroup, target *wgpu.TextureView, overlay func(*wgpu.RenderPassEncoder)) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, source, nil)
	pass.SetBindGroup(1, flags, nil)
	pass.SetVertexBuffer(0, p.quad.VertexBuffer, 0, p.quad.VertexBuffer.GetSize())
	pass.SetIndexBuffer(p.quad.IndexBuffer, wgpu.IndexFormatUint32, 0, p.quad.IndexBuffer.GetSize())
	pass.DrawIndexed(p.quad.IndexCount, 1, 0, 0, 0)
	if overlay != nil {
		overlay(pass)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end %s: %w", label, err)
	}
	return nil
}

func (p *PostPass) releaseTargets() {
	if p.pingGroup != nil {
		p.pingGroup.Release()
		p.pingView.Release()
		p.pingTexture.Release()
		p.pingGroup = nil
	}
	if p.pongGroup != nil {
		p.pongGroup.Release()
		p.pongView.Release()
		p.pongTexture.Release()
		p.pongGroup = nil
	}
}

func (p *PostPass) Release() {
	p.releaseTargets()
	p.secondFlagsGroup.Release()
	p.secondFlagsBuffer.Release()
	p.firstFlagsGroup.Release()
	p.firstFlagsBuffer.Release()
	p.sampler.Release()
	p.quad.Release()
	p.pipeline.Release()
}
