package loaders

import (
	"bytes"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// LoadGLTF reads a .gltf or .glb file, external buffers included.
func LoadGLTF(path string) (*metadata.ModelData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gltf %s", path)
	}
	model, err := ModelFromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "gltf %s", path)
	}
	return model, nil
}

// ModelFromDocument turns every triangle primitive of doc into a mesh.
// Base colour textures stored inside the document are decoded right away,
// external ones are left as a file name for the caller to load.
func ModelFromDocument(doc *gltf.Document, name string) (*metadata.ModelData, error) {
	model := &metadata.ModelData{Name: name}

	for i, m := range doc.Materials {
		mat, err := materialFromDocument(doc, m)
		if err != nil {
			return nil, errors.Wrapf(err, "material %d", i)
		}
		model.Materials = append(model.Materials, mat)
	}

	for _, mesh := range doc.Meshes {
		meshName := mesh.Name
		if meshName == "" {
			meshName = name
		}
		for _, primitive := range mesh.Primitives {
			if primitive.Mode != gltf.PrimitiveTriangles {
				core.LogWarn("gltf mesh %q: skipping primitive with mode %v", meshName, primitive.Mode)
				continue
			}
			data, err := meshFromPrimitive(doc, primitive)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %q", meshName)
			}
			data.Name = meshName
			model.Meshes = append(model.Meshes, data)
		}
	}
	if len(model.Meshes) == 0 {
		return nil, errors.Wrap(core.ErrMalformedModel, "no triangle meshes")
	}
	return model, nil
}

func meshFromPrimitive(doc *gltf.Document, primitive *gltf.Primitive) (metadata.MeshData, error) {
	var data metadata.MeshData

	posIdx, ok := primitive.Attributes["POSITION"]
	if !ok {
		return data, errors.Wrap(core.ErrMalformedModel, "primitive without POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return data, errors.Wrapf(err, "Failed to read mesh vertices")
	}

	var normals [][3]float32
	if idx, ok := primitive.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return data, errors.Wrapf(err, "Failed to read mesh normals")
		}
	}
	var texCoords [][2]float32
	if idx, ok := primitive.Attributes["TEXCOORD_0"]; ok {
		if texCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return data, errors.Wrapf(err, "Failed to read mesh texture coordinates")
		}
	}

	data.Vertices = make([]metadata.ModelVertex, len(positions))
	for i, p := range positions {
		data.Vertices[i].Position = p
		if i < len(normals) {
			data.Vertices[i].Normal = normals[i]
		}
		if i < len(texCoords) {
			data.Vertices[i].TexCoords = texCoords[i]
		}
	}

	if primitive.Indices != nil {
		if data.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil); err != nil {
			return data, errors.Wrapf(err, "Failed to read mesh indices")
		}
	} else {
		data.Indices = make([]uint32, len(positions))
		for i := range data.Indices {
			data.Indices[i] = uint32(i)
		}
	}
	for _, idx := range data.Indices {
		if int(idx) >= len(positions) {
			return data, errors.Wrapf(core.ErrMalformedModel, "index %d out of range (%d vertices)", idx, len(positions))
		}
	}

	if primitive.Material != nil {
		data.MaterialIndex = int(*primitive.Material)
	}
	return data, nil
}

func materialFromDocument(doc *gltf.Document, m *gltf.Material) (metadata.MaterialData, error) {
	mat := metadata.MaterialData{Name: m.Name}
	if m.PBRMetallicRoughness == nil || m.PBRMetallicRoughness.BaseColorTexture == nil {
		return mat, nil
	}
	texIdx := int(m.PBRMetallicRoughness.BaseColorTexture.Index)
	if texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return mat, errors.Wrapf(core.ErrMalformedModel, "texture %d has no image", texIdx)
	}
	imgIdx := int(*doc.Textures[texIdx].Source)
	if imgIdx >= len(doc.Images) {
		return mat, errors.Wrapf(core.ErrMalformedModel, "image %d out of range", imgIdx)
	}
	img := doc.Images[imgIdx]

	switch {
	case img.BufferView != nil:
		raw, err := bufferViewBytes(doc, *img.BufferView)
		if err != nil {
			return mat, err
		}
		if mat.DiffuseImage, err = DecodeImage(bytes.NewReader(raw)); err != nil {
			return mat, errors.Wrapf(err, "image %d", imgIdx)
		}
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return mat, errors.Wrapf(err, "image %d", imgIdx)
		}
		if mat.DiffuseImage, err = DecodeImage(bytes.NewReader(raw)); err != nil {
			return mat, errors.Wrapf(err, "image %d", imgIdx)
		}
	default:
		mat.DiffuseTexture = img.URI
	}
	return mat, nil
}

func bufferViewBytes(doc *gltf.Document, idx uint32) ([]byte, error) {
	if int(idx) >= len(doc.BufferViews) {
		return nil, errors.Wrapf(core.ErrMalformedModel, "buffer view %d out of range", idx)
	}
	view := doc.BufferViews[idx]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, errors.Wrapf(core.ErrMalformedModel, "buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	end := int(view.ByteOffset) + int(view.ByteLength)
	if end > len(data) {
		return nil, errors.Wrapf(core.ErrMalformedModel, "buffer view %d exceeds its buffer", idx)
	}
	return data[view.ByteOffset:end], nil
}
