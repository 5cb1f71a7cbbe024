package metadata

import "image"

/**
 * @brief CPU side geometry of one mesh of a loaded model, ready to be
 * uploaded.
 */
type MeshData struct {
	Name     string
	Vertices []ModelVertex
	Indices  []uint32
	// Index into ModelData.Materials.
	MaterialIndex int
}

/** @brief A material as declared by the model file. */
type MaterialData struct {
	Name string
	// File name of the diffuse texture, relative to the model file.
	DiffuseTexture string
	// Decoded diffuse image, filled in by the asset manager.
	DiffuseImage image.Image
}

/** @brief The output of a model loader. */
type ModelData struct {
	Name      string
	Meshes    []MeshData
	Materials []MaterialData
}
