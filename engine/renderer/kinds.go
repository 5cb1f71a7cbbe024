package renderer

/** @brief Selects which of the two pipelines draws the frame. */
type PipelineKind uint8

const (
	// Normal shading.
	PipelineShaded PipelineKind = iota
	// Debug colour: position for coloured geometry, UV for textured
	// quads, normals for models.
	PipelineAlternate

	pipelineKindCount
)

func (k PipelineKind) Next() PipelineKind {
	return (k + 1) % pipelineKindCount
}

func (k PipelineKind) String() string {
	switch k {
	case PipelineShaded:
		return "shaded"
	case PipelineAlternate:
		return "alternate"
	default:
		return "unknown"
	}
}

/** @brief Selects which inline geometry set is drawn. */
type BufferSetKind uint8

const (
	BufferSetPentagon BufferSetKind = iota
	BufferSetTriangle

	bufferSetKindCount
)

func (k BufferSetKind) Next() BufferSetKind {
	return (k + 1) % bufferSetKindCount
}

func (k BufferSetKind) String() string {
	switch k {
	case BufferSetPentagon:
		return "pentagon"
	case BufferSetTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}
