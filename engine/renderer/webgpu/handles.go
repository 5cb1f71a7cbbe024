package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/renderer/backend"
)

// Thin wrappers so the wgpu handles satisfy the backend interfaces. Release
// is promoted from the embedded handle.

type buffer struct{ *wgpu.Buffer }
type textureView struct{ *wgpu.TextureView }
type sampler struct{ *wgpu.Sampler }
type shaderModule struct{ *wgpu.ShaderModule }
type bindGroupLayout struct{ *wgpu.BindGroupLayout }
type bindGroup struct{ *wgpu.BindGroup }
type pipelineLayout struct{ *wgpu.PipelineLayout }
type renderPipeline struct{ *wgpu.RenderPipeline }
type commandBuffer struct{ *wgpu.CommandBuffer }

type texture struct{ *wgpu.Texture }

func (t *texture) CreateView() (backend.TextureView, error) {
	v, err := t.Texture.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &textureView{v}, nil
}

func unwrapBuffer(b backend.Buffer) *wgpu.Buffer {
	if b == nil {
		return nil
	}
	return b.(*buffer).Buffer
}

func unwrapView(v backend.TextureView) *wgpu.TextureView {
	if v == nil {
		return nil
	}
	return v.(*textureView).TextureView
}

func unwrapSampler(s backend.Sampler) *wgpu.Sampler {
	if s == nil {
		return nil
	}
	return s.(*sampler).Sampler
}
