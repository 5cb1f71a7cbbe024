package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Files the asset manager does not handle. */
	ResourceTypeNone ResourceType = iota
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material library resource type. */
	ResourceTypeMaterial
	/** @brief WGSL shader source. */
	ResourceTypeShader
	/** @brief Model resource type (obj, gltf, glb). */
	ResourceTypeModel
)

func (r ResourceType) String() string {
	switch r {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeModel:
		return "model"
	default:
		return "none"
	}
}
