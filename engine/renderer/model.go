package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/backend"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief One drawable piece of a model with its own buffers. */
type Mesh struct {
	Name         string
	VertexBuffer backend.Buffer
	IndexBuffer  backend.Buffer
	NumElements  uint32
	// Index into Model.Materials.
	Material int
}

type Material struct {
	Name      string
	Diffuse   *Texture
	BindGroup backend.BindGroup
}

/** @brief A model uploaded to the GPU. */
type Model struct {
	Name      string
	Meshes    []Mesh
	Materials []Material
}

// NewModel uploads every material texture and mesh of data. Materials are
// bound against layout, the texture bind group layout of the pipelines.
func NewModel(device backend.Device, layout backend.BindGroupLayout, data *metadata.ModelData) (*Model, error) {
	if len(data.Materials) == 0 {
		return nil, &core.AssetError{Name: data.Name, Err: fmt.Errorf("%w: no materials", core.ErrMalformedModel)}
	}

	m := &Model{Name: data.Name}
	for _, md := range data.Materials {
		if md.DiffuseImage == nil {
			m.Release()
			return nil, &core.AssetError{Name: md.Name, Err: core.ErrMaterialWithoutTexture}
		}
		diffuse, err := NewTextureFromImage(device, md.DiffuseTexture, md.DiffuseImage)
		if err != nil {
			m.Release()
			return nil, err
		}
		bg, err := newTextureBindGroup(device, layout, diffuse, "material "+md.Name)
		if err != nil {
			diffuse.Release()
			m.Release()
			return nil, err
		}
		m.Materials = append(m.Materials, Material{Name: md.Name, Diffuse: diffuse, BindGroup: bg})
	}

	for _, mesh := range data.Meshes {
		if mesh.MaterialIndex < 0 || mesh.MaterialIndex >= len(m.Materials) {
			m.Release()
			return nil, &core.AssetError{
				Name: mesh.Name,
				Err:  fmt.Errorf("%w: material index %d out of range", core.ErrMalformedModel, mesh.MaterialIndex),
			}
		}
		vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    mesh.Name + " Vertex Buffer",
			Contents: wgpu.ToBytes(mesh.Vertices),
			Usage:    wgpu.BufferUsageVertex,
		})
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("mesh %s: %w", mesh.Name, err)
		}
		ib, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    mesh.Name + " Index Buffer",
			Contents: wgpu.ToBytes(mesh.Indices),
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			vb.Release()
			m.Release()
			return nil, fmt.Errorf("mesh %s: %w", mesh.Name, err)
		}
		m.Meshes = append(m.Meshes, Mesh{
			Name:         mesh.Name,
			VertexBuffer: vb,
			IndexBuffer:  ib,
			NumElements:  uint32(len(mesh.Indices)),
			Material:     mesh.MaterialIndex,
		})
	}
	return m, nil
}

func (m *Model) Release() {
	if m == nil {
		return
	}
	for _, mesh := range m.Meshes {
		mesh.VertexBuffer.Release()
		mesh.IndexBuffer.Release()
	}
	for _, mat := range m.Materials {
		mat.BindGroup.Release()
		mat.Diffuse.Release()
	}
	m.Meshes = nil
	m.Materials = nil
}

func newTextureBindGroup(device backend.Device, layout backend.BindGroupLayout, t *Texture, label string) (backend.BindGroup, error) {
	bg, err := device.CreateBindGroup(&backend.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []backend.BindGroupEntry{
			{Binding: 0, TextureView: t.View},
			{Binding: 1, Sampler: t.Sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %s: %w", label, err)
	}
	return bg, nil
}

/** @brief The GPU buffers of one inline geometry set. */
type bufferSet struct {
	vertices   backend.Buffer
	indices    backend.Buffer
	numIndices uint32
}

func newBufferSet(device backend.Device, g metadata.GeometrySet, textured bool) (bufferSet, error) {
	var contents []byte
	if textured {
		contents = wgpu.ToBytes(g.Textured)
	} else {
		contents = wgpu.ToBytes(g.Colored)
	}
	vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    g.Name + " Vertex Buffer",
		Contents: contents,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return bufferSet{}, fmt.Errorf("geometry %s: %w", g.Name, err)
	}

	// Buffer sizes must be a multiple of four bytes.
	indices := g.Indices
	if len(indices)%2 == 1 {
		indices = append(append([]uint16(nil), indices...), 0)
	}
	ib, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    g.Name + " Index Buffer",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vb.Release()
		return bufferSet{}, fmt.Errorf("geometry %s: %w", g.Name, err)
	}
	return bufferSet{vertices: vb, indices: ib, numIndices: g.IndexCount()}, nil
}

func (b *bufferSet) release() {
	if b.vertices != nil {
		b.vertices.Release()
		b.vertices = nil
	}
	if b.indices != nil {
		b.indices.Release()
		b.indices = nil
	}
}
