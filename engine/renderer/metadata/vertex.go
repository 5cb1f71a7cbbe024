package metadata

import "unsafe"

/**
 * @brief A vertex carrying a flat colour, used by the untextured pipelines.
 * Layout: position @location(0), color @location(1).
 */
type ColorVertex struct {
	Position [3]float32
	Color    [3]float32
}

/**
 * @brief A vertex carrying texture coordinates, used by the textured
 * inline geometry. Layout: position @location(0), tex_coords @location(1).
 */
type TexturedVertex struct {
	Position  [3]float32
	TexCoords [2]float32
}

/**
 * @brief A vertex of a loaded model.
 * Layout: position @location(0), tex_coords @location(1), normal @location(2).
 */
type ModelVertex struct {
	Position  [3]float32
	TexCoords [2]float32
	Normal    [3]float32
}

const (
	ColorVertexSize    = uint64(unsafe.Sizeof(ColorVertex{}))
	TexturedVertexSize = uint64(unsafe.Sizeof(TexturedVertex{}))
	ModelVertexSize    = uint64(unsafe.Sizeof(ModelVertex{}))
)
