package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

var colorVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: metadata.ColorVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
	},
}

var texturedVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: metadata.TexturedVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	},
}

var modelVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: metadata.ModelVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
	},
}

// The model matrix takes four vertex slots, one per column.
var instanceLayout = wgpu.VertexBufferLayout{
	ArrayStride: metadata.InstanceRawSize,
	StepMode:    wgpu.VertexStepModeInstance,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 7},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 8},
	},
}

var textureBindGroupLayout = wgpu.BindGroupLayoutDescriptor{
	Label: "texture_bind_group_layout",
	Entries: []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				Multisampled:  false,
				ViewDimension: wgpu.TextureViewDimension2D,
				SampleType:    wgpu.TextureSampleTypeFloat,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		},
	},
}

var cameraBindGroupLayout = wgpu.BindGroupLayoutDescriptor{
	Label: "camera_bind_group_layout",
	Entries: []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: false,
				MinBindingSize:   components.CameraUniformSize,
			},
		},
	},
}

// vertexLayouts returns the buffer layouts for the active features, the
// geometry buffer first.
func vertexLayouts(f Features) []wgpu.VertexBufferLayout {
	var buffers []wgpu.VertexBufferLayout
	switch {
	case f.Model:
		buffers = append(buffers, modelVertexLayout)
	case f.Texturing:
		buffers = append(buffers, texturedVertexLayout)
	default:
		buffers = append(buffers, colorVertexLayout)
	}
	if f.Instancing {
		buffers = append(buffers, instanceLayout)
	}
	return buffers
}
