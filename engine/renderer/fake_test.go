package renderer

import (
	"context"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/backend"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// A recording backend. Every handle remembers its label and whether it was
// released; render pass commands are appended to fakeDevice.calls.

type fakeHandle struct {
	kind     string
	label    string
	released int
}

func (h *fakeHandle) Release() { h.released++ }

func (h *fakeHandle) name() string { return h.label }

func (h *fakeHandle) count() int { return h.released }

type releaseCounter interface{ count() int }

func labelOf(v interface{}) string {
	if h, ok := v.(interface{ name() string }); ok {
		return h.name()
	}
	return "<nil>"
}

type fakeTexture struct {
	fakeHandle
	desc  wgpu.TextureDescriptor
	views []*fakeHandle
}

func (t *fakeTexture) CreateView() (backend.TextureView, error) {
	v := &fakeHandle{kind: "view", label: t.label + " view"}
	t.views = append(t.views, v)
	return v, nil
}

type fakeBuffer struct {
	fakeHandle
	usage    wgpu.BufferUsage
	contents []byte
}

type fakeWrite struct {
	buffer backend.Buffer
	data   []byte
}

type fakeQueue struct {
	writes        []fakeWrite
	textureWrites int
	submits       int
}

func (q *fakeQueue) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	q.writes = append(q.writes, fakeWrite{buffer: buf, data: append([]byte(nil), data...)})
	return nil
}

func (q *fakeQueue) WriteTexture(tex backend.Texture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	q.textureWrites++
	return nil
}

func (q *fakeQueue) Submit(cmds ...backend.CommandBuffer) {
	q.submits += len(cmds)
}

type fakeDevice struct {
	fakeHandle
	queue fakeQueue

	handles    []backend.Releaser
	buffers    []*fakeBuffer
	textures   []*fakeTexture
	pipelines  []*backend.RenderPipelineDescriptor
	bindGroups []*backend.BindGroupDescriptor
	layouts    []backend.BindGroupLayout
	calls      []string

	failPipelines bool
	failTextures  bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{fakeHandle: fakeHandle{kind: "device", label: "device"}}
}

func (d *fakeDevice) handle(kind, label string) *fakeHandle {
	h := &fakeHandle{kind: kind, label: label}
	d.handles = append(d.handles, h)
	return h
}

func (d *fakeDevice) Queue() backend.Queue { return &d.queue }

func (d *fakeDevice) CreateShaderModule(label, wgsl string) (backend.ShaderModule, error) {
	return d.handle("shader", label), nil
}

func (d *fakeDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (backend.BindGroupLayout, error) {
	l := d.handle("bind group layout", desc.Label)
	d.layouts = append(d.layouts, l)
	return l, nil
}

func (d *fakeDevice) CreateBindGroup(desc *backend.BindGroupDescriptor) (backend.BindGroup, error) {
	d.bindGroups = append(d.bindGroups, desc)
	return d.handle("bind group", desc.Label), nil
}

func (d *fakeDevice) CreatePipelineLayout(label string, layouts []backend.BindGroupLayout) (backend.PipelineLayout, error) {
	return d.handle("pipeline layout", label), nil
}

func (d *fakeDevice) CreateRenderPipeline(desc *backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	if d.failPipelines {
		return nil, fmt.Errorf("pipeline creation failed")
	}
	d.pipelines = append(d.pipelines, desc)
	return d.handle("pipeline", desc.Label), nil
}

func (d *fakeDevice) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (backend.Buffer, error) {
	b := &fakeBuffer{
		fakeHandle: fakeHandle{kind: "buffer", label: desc.Label},
		usage:      desc.Usage,
		contents:   append([]byte(nil), desc.Contents...),
	}
	d.buffers = append(d.buffers, b)
	d.handles = append(d.handles, b)
	return b, nil
}

func (d *fakeDevice) CreateTexture(desc *wgpu.TextureDescriptor) (backend.Texture, error) {
	if d.failTextures {
		return nil, fmt.Errorf("texture creation failed")
	}
	t := &fakeTexture{fakeHandle: fakeHandle{kind: "texture", label: desc.Label}, desc: *desc}
	d.textures = append(d.textures, t)
	d.handles = append(d.handles, t)
	return t, nil
}

func (d *fakeDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (backend.Sampler, error) {
	return d.handle("sampler", desc.Label), nil
}

func (d *fakeDevice) CreateCommandEncoder(label string) (backend.CommandEncoder, error) {
	return &fakeEncoder{dev: d}, nil
}

func (d *fakeDevice) bufferByLabel(label string) *fakeBuffer {
	for _, b := range d.buffers {
		if b.label == label {
			return b
		}
	}
	return nil
}

type fakeEncoder struct {
	dev *fakeDevice
}

func (e *fakeEncoder) BeginRenderPass(desc *backend.RenderPassDescriptor) backend.RenderPass {
	depth := "none"
	if desc.DepthView != nil {
		depth = fmt.Sprintf("%v", desc.DepthClear)
	}
	e.dev.calls = append(e.dev.calls, fmt.Sprintf("BeginRenderPass clear=%v depth=%s", desc.ClearColor, depth))
	return &fakePass{dev: e.dev}
}

func (e *fakeEncoder) Finish() (backend.CommandBuffer, error) {
	return &fakeHandle{kind: "command buffer"}, nil
}

func (e *fakeEncoder) Release() {}

type fakePass struct {
	dev *fakeDevice
}

func (p *fakePass) record(format string, args ...interface{}) {
	p.dev.calls = append(p.dev.calls, fmt.Sprintf(format, args...))
}

func (p *fakePass) SetPipeline(rp backend.RenderPipeline) {
	p.record("SetPipeline %s", labelOf(rp))
}

func (p *fakePass) SetBindGroup(index uint32, group backend.BindGroup) {
	p.record("SetBindGroup %d %s", index, labelOf(group))
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf backend.Buffer) {
	p.record("SetVertexBuffer %d %s", slot, labelOf(buf))
}

func (p *fakePass) SetIndexBuffer(buf backend.Buffer, format wgpu.IndexFormat) {
	f := "uint32"
	if format == wgpu.IndexFormatUint16 {
		f = "uint16"
	}
	p.record("SetIndexBuffer %s %s", labelOf(buf), f)
}

func (p *fakePass) DrawIndexed(indexCount, instanceCount uint32) {
	p.record("DrawIndexed %d %d", indexCount, instanceCount)
}

func (p *fakePass) End() error {
	p.record("End")
	return nil
}

func (p *fakePass) Release() {}

type fakeSurface struct {
	fakeHandle
	caps       backend.SurfaceCapabilities
	configures []backend.SurfaceConfiguration
	acquireErr   error
	configureErr error
	acquired   []*fakeTexture
	presents   int
}

func newFakeSurface(formats ...wgpu.TextureFormat) *fakeSurface {
	if len(formats) == 0 {
		formats = []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb}
	}
	return &fakeSurface{
		fakeHandle: fakeHandle{kind: "surface", label: "surface"},
		caps: backend.SurfaceCapabilities{
			Formats:      formats,
			PresentModes: []wgpu.PresentMode{wgpu.PresentModeFifo},
			AlphaModes:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque},
		},
	}
}

func (s *fakeSurface) Capabilities() backend.SurfaceCapabilities { return s.caps }

func (s *fakeSurface) Configure(cfg *backend.SurfaceConfiguration) error {
	if s.configureErr != nil {
		return s.configureErr
	}
	s.configures = append(s.configures, *cfg)
	return nil
}

func (s *fakeSurface) AcquireTexture() (backend.Texture, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	t := &fakeTexture{fakeHandle: fakeHandle{kind: "texture", label: "frame"}}
	s.acquired = append(s.acquired, t)
	return t, nil
}

func (s *fakeSurface) Present() { s.presents++ }

type fakeAssets struct {
	textures map[string]image.Image
	model    *metadata.ModelData
}

func (a *fakeAssets) LoadTexture(ctx context.Context, name string) (image.Image, error) {
	img, ok := a.textures[name]
	if !ok {
		return nil, &core.AssetError{Name: name, Err: core.ErrAssetNotFound}
	}
	return img, nil
}

func (a *fakeAssets) LoadModel(ctx context.Context, name string) (*metadata.ModelData, error) {
	if a.model == nil || a.model.Name != name {
		return nil, &core.AssetError{Name: name, Err: core.ErrAssetNotFound}
	}
	return a.model, nil
}
