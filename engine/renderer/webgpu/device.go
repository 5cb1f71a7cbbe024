package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/renderer/backend"
)

type device struct {
	d *wgpu.Device
	q *queue
}

func newDevice(d *wgpu.Device) *device {
	return &device{d: d, q: &queue{q: d.GetQueue()}}
}

func (d *device) Queue() backend.Queue {
	return d.q
}

func (d *device) CreateShaderModule(label, wgsl string) (backend.ShaderModule, error) {
	m, err := d.d.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, err
	}
	return &shaderModule{m}, nil
}

func (d *device) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (backend.BindGroupLayout, error) {
	l, err := d.d.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, err
	}
	return &bindGroupLayout{l}, nil
}

func (d *device) CreateBindGroup(desc *backend.BindGroupDescriptor) (backend.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			size := e.Size
			if size == 0 {
				size = wgpu.WholeSize
			}
			entries[i].Buffer = unwrapBuffer(e.Buffer)
			entries[i].Offset = 0
			entries[i].Size = size
		case e.TextureView != nil:
			entries[i].TextureView = unwrapView(e.TextureView)
		case e.Sampler != nil:
			entries[i].Sampler = unwrapSampler(e.Sampler)
		}
	}
	g, err := d.d.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*bindGroupLayout).BindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &bindGroup{g}, nil
}

func (d *device) CreatePipelineLayout(label string, layouts []backend.BindGroupLayout) (backend.PipelineLayout, error) {
	raw := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		raw[i] = l.(*bindGroupLayout).BindGroupLayout
	}
	l, err := d.d.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: raw,
	})
	if err != nil {
		return nil, err
	}
	return &pipelineLayout{l}, nil
}

func (d *device) CreateRenderPipeline(desc *backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	module := desc.Shader.(*shaderModule).ShaderModule
	p, err := d.d.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.(*pipelineLayout).PipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.Buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    desc.Targets,
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  desc.Multisample,
	})
	if err != nil {
		return nil, err
	}
	return &renderPipeline{p}, nil
}

func (d *device) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (backend.Buffer, error) {
	b, err := d.d.CreateBufferInit(desc)
	if err != nil {
		return nil, err
	}
	return &buffer{b}, nil
}

func (d *device) CreateTexture(desc *wgpu.TextureDescriptor) (backend.Texture, error) {
	t, err := d.d.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return &texture{t}, nil
}

func (d *device) CreateSampler(desc *wgpu.SamplerDescriptor) (backend.Sampler, error) {
	s, err := d.d.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	return &sampler{s}, nil
}

func (d *device) CreateCommandEncoder(label string) (backend.CommandEncoder, error) {
	e, err := d.d.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &commandEncoder{e}, nil
}

func (d *device) Release() {
	if d.q != nil {
		d.q.q.Release()
		d.q = nil
	}
	if d.d != nil {
		d.d.Release()
		d.d = nil
	}
}

type queue struct {
	q *wgpu.Queue
}

func (q *queue) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	return q.q.WriteBuffer(unwrapBuffer(buf), offset, data)
}

func (q *queue) WriteTexture(tex backend.Texture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	q.q.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  tex.(*texture).Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		data,
		layout,
		size,
	)
	return nil
}

func (q *queue) Submit(cmds ...backend.CommandBuffer) {
	raw := make([]*wgpu.CommandBuffer, len(cmds))
	for i, c := range cmds {
		raw[i] = c.(*commandBuffer).CommandBuffer
	}
	q.q.Submit(raw...)
}

type commandEncoder struct {
	e *wgpu.CommandEncoder
}

func (e *commandEncoder) BeginRenderPass(desc *backend.RenderPassDescriptor) backend.RenderPass {
	rp := &wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       unwrapView(desc.ColorView),
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: desc.ClearColor,
		}},
	}
	if desc.DepthView != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            unwrapView(desc.DepthView),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.DepthClear,
		}
	}
	return &renderPass{e.e.BeginRenderPass(rp)}
}

func (e *commandEncoder) Finish() (backend.CommandBuffer, error) {
	cb, err := e.e.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &commandBuffer{cb}, nil
}

func (e *commandEncoder) Release() {
	e.e.Release()
}

type renderPass struct {
	p *wgpu.RenderPassEncoder
}

func (r *renderPass) SetPipeline(p backend.RenderPipeline) {
	r.p.SetPipeline(p.(*renderPipeline).RenderPipeline)
}

func (r *renderPass) SetBindGroup(index uint32, group backend.BindGroup) {
	r.p.SetBindGroup(index, group.(*bindGroup).BindGroup, nil)
}

func (r *renderPass) SetVertexBuffer(slot uint32, buf backend.Buffer) {
	r.p.SetVertexBuffer(slot, unwrapBuffer(buf), 0, wgpu.WholeSize)
}

func (r *renderPass) SetIndexBuffer(buf backend.Buffer, format wgpu.IndexFormat) {
	r.p.SetIndexBuffer(unwrapBuffer(buf), format, 0, wgpu.WholeSize)
}

func (r *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	r.p.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (r *renderPass) End() error {
	r.p.End()
	return nil
}

func (r *renderPass) Release() {
	r.p.Release()
}
