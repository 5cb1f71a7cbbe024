package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
)

func triangleDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	position := modeler.WritePosition(doc, [][3]float32{{0, 0.5, 0}, {-0.5, -0.5, 0}, {0.5, -0.5, 0}})
	normal := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0.5, 0}, {0, 1}, {1, 1}})
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))
	imageIndex, err := modeler.WriteImage(doc, "diffuse", "image/png", &encoded)
	require.NoError(t, err)

	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imageIndex)})
	doc.Materials = append(doc.Materials,
		&gltf.Material{
			Name: "embedded",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		},
	)
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(indices),
			Attributes: map[string]uint32{
				"POSITION":   position,
				"NORMAL":     normal,
				"TEXCOORD_0": uv,
			},
			Material: gltf.Index(0),
		}},
	})
	return doc
}

func TestModelFromDocument(t *testing.T) {
	model, err := ModelFromDocument(triangleDocument(t), "tri.glb")
	require.NoError(t, err)
	assert.Equal(t, "tri.glb", model.Name)

	require.Len(t, model.Meshes, 1)
	mesh := model.Meshes[0]
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, [3]float32{0, 0.5, 0}, mesh.Vertices[0].Position)
	assert.Equal(t, [2]float32{0, 1}, mesh.Vertices[1].TexCoords)
	assert.Equal(t, [3]float32{0, 0, 1}, mesh.Vertices[2].Normal)
	assert.Equal(t, 0, mesh.MaterialIndex)

	require.Len(t, model.Materials, 1)
	mat := model.Materials[0]
	assert.Equal(t, "embedded", mat.Name)
	require.NotNil(t, mat.DiffuseImage)
	assert.Equal(t, image.Rect(0, 0, 2, 2), mat.DiffuseImage.Bounds())
}

func TestModelFromDocumentExternalTexture(t *testing.T) {
	doc := triangleDocument(t)
	doc.Images = append(doc.Images, &gltf.Image{URI: "textures/wall.png"})
	doc.Textures[0].Source = gltf.Index(uint32(len(doc.Images) - 1))

	model, err := ModelFromDocument(doc, "tri.gltf")
	require.NoError(t, err)
	assert.Nil(t, model.Materials[0].DiffuseImage)
	assert.Equal(t, "textures/wall.png", model.Materials[0].DiffuseTexture)
}

func TestModelFromDocumentWithoutIndices(t *testing.T) {
	doc := triangleDocument(t)
	doc.Meshes[0].Primitives[0].Indices = nil

	model, err := ModelFromDocument(doc, "tri.glb")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, model.Meshes[0].Indices)
}

func TestModelFromDocumentRejectsEmpty(t *testing.T) {
	doc := triangleDocument(t)
	delete(doc.Meshes[0].Primitives[0].Attributes, "POSITION")

	_, err := ModelFromDocument(doc, "tri.glb")
	assert.ErrorIs(t, err, core.ErrMalformedModel)

	_, err = ModelFromDocument(gltf.NewDocument(), "empty.glb")
	assert.ErrorIs(t, err, core.ErrMalformedModel)
}
