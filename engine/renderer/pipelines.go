package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/renderer/backend"
	"github.com/spaghettifunk/lumen/engine/renderer/shaders"
)

// shaderName is the program drawing the active feature set.
func (s *State) shaderName() string {
	if s.opts.Features.Texturing {
		return shaders.Textured
	}
	return shaders.Color
}

// bindGroupSlots returns the group index of the texture and camera bind
// groups, -1 for a group that is not bound.
func (s *State) bindGroupSlots() (texture, camera int) {
	texture, camera = -1, -1
	next := 0
	if s.opts.Features.Texturing {
		texture = next
		next++
	}
	if s.opts.Features.Camera {
		camera = next
	}
	return texture, camera
}

func (s *State) shaderParams(kind PipelineKind) shaders.Params {
	texture, camera := s.bindGroupSlots()
	return shaders.Params{
		Alternate:    kind == PipelineAlternate,
		Camera:       s.opts.Features.Camera,
		Instancing:   s.opts.Features.Instancing,
		Normals:      s.opts.Features.Model,
		TextureGroup: texture,
		CameraGroup:  camera,
	}
}

// buildPipelines renders the template src once per pipeline kind and
// creates the pipelines. Nothing is kept when any variant fails.
func (s *State) buildPipelines(src string) ([pipelineKindCount]backend.RenderPipeline, error) {
	var out [pipelineKindCount]backend.RenderPipeline
	release := func() {
		for _, p := range out {
			if p != nil {
				p.Release()
			}
		}
	}

	name := s.shaderName()
	for kind := PipelineKind(0); kind < pipelineKindCount; kind++ {
		wgsl, err := shaders.RenderSource(name, src, s.shaderParams(kind))
		if err != nil {
			release()
			return out, err
		}
		if err := shaders.Validate(wgsl); err != nil {
			release()
			return out, fmt.Errorf("shader %s (%s): %w", name, kind, err)
		}
		p, err := s.createPipeline(name, kind, wgsl)
		if err != nil {
			release()
			return out, err
		}
		out[kind] = p
	}
	return out, nil
}

func (s *State) createPipeline(name string, kind PipelineKind, wgsl string) (backend.RenderPipeline, error) {
	label := fmt.Sprintf("%s %s", name, kind)
	module, err := s.device.CreateShaderModule(label, wgsl)
	if err != nil {
		return nil, fmt.Errorf("shader module %s: %w", label, err)
	}
	defer module.Release()

	desc := &backend.RenderPipelineDescriptor{
		Label:         label + " Render Pipeline",
		Layout:        s.pipelineLayout,
		Shader:        module,
		VertexEntry:   shaders.VertexEntry,
		FragmentEntry: shaders.FragmentEntry,
		Buffers:       vertexLayouts(s.opts.Features),
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
		Targets: []wgpu.ColorTargetState{{
			Format:    s.config.Format,
			Blend:     &wgpu.BlendStateAlphaBlending,
			WriteMask: wgpu.ColorWriteMaskAll,
		}},
	}
	if s.opts.Features.Depth {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	p, err := s.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", label, err)
	}
	return p, nil
}

func (s *State) releasePipelines() {
	for i, p := range s.pipelines {
		if p != nil {
			p.Release()
			s.pipelines[i] = nil
		}
	}
}
