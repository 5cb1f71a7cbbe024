// Package backend is the narrow slice of a WebGPU device the render state
// drives. The webgpu package implements it on wgpu-native; tests implement
// it with a recording fake.
package backend

import "github.com/cogentcore/webgpu/wgpu"

/** @brief Every GPU handle owns native memory and must be released once. */
type Releaser interface {
	Release()
}

type Buffer interface{ Releaser }
type TextureView interface{ Releaser }
type Sampler interface{ Releaser }
type ShaderModule interface{ Releaser }
type BindGroupLayout interface{ Releaser }
type BindGroup interface{ Releaser }
type PipelineLayout interface{ Releaser }
type RenderPipeline interface{ Releaser }
type CommandBuffer interface{ Releaser }

type Texture interface {
	Releaser
	CreateView() (TextureView, error)
}

/**
 * @brief One binding of a bind group. Exactly one of Buffer, TextureView
 * or Sampler is set.
 */
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Size        uint64
	TextureView TextureView
	Sampler     Sampler
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

/**
 * @brief A render pipeline whose vertex and fragment stages come from the
 * same module. A nil DepthStencil disables depth testing.
 */
type RenderPipelineDescriptor struct {
	Label         string
	Layout        PipelineLayout
	Shader        ShaderModule
	VertexEntry   string
	FragmentEntry string
	Buffers       []wgpu.VertexBufferLayout
	Primitive     wgpu.PrimitiveState
	DepthStencil  *wgpu.DepthStencilState
	Multisample   wgpu.MultisampleState
	Targets       []wgpu.ColorTargetState
}

/**
 * @brief A single pass with one colour attachment cleared to ClearColor.
 * When DepthView is set the depth attachment is cleared to DepthClear.
 */
type RenderPassDescriptor struct {
	Label      string
	ColorView  TextureView
	ClearColor wgpu.Color
	DepthView  TextureView
	DepthClear float32
}

type SurfaceCapabilities struct {
	Formats      []wgpu.TextureFormat
	PresentModes []wgpu.PresentMode
	AlphaModes   []wgpu.CompositeAlphaMode
}

type SurfaceConfiguration struct {
	Usage       wgpu.TextureUsage
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	PresentMode wgpu.PresentMode
	AlphaMode   wgpu.CompositeAlphaMode
}

type Device interface {
	Releaser
	Queue() Queue
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreatePipelineLayout(label string, layouts []BindGroupLayout) (PipelineLayout, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateBufferInit(desc *wgpu.BufferInitDescriptor) (Buffer, error)
	CreateTexture(desc *wgpu.TextureDescriptor) (Texture, error)
	CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
}

type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	WriteTexture(tex Texture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error
	Submit(cmds ...CommandBuffer)
}

/**
 * @brief The presentation target of the window. AcquireTexture returns
 * core.ErrSurfaceLost, core.ErrSurfaceOutOfMemory or a *core.SurfaceError
 * when no frame is available.
 */
type Surface interface {
	Releaser
	Capabilities() SurfaceCapabilities
	Configure(cfg *SurfaceConfiguration) error
	AcquireTexture() (Texture, error)
	Present()
}

type CommandEncoder interface {
	Releaser
	BeginRenderPass(desc *RenderPassDescriptor) RenderPass
	Finish() (CommandBuffer, error)
}

type RenderPass interface {
	Releaser
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	End() error
}
