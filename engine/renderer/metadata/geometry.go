package metadata

/**
 * @brief Inline geometry compiled into the binary. Both vertex flavours
 * share one index list so the same set can feed the coloured and the
 * textured pipelines.
 */
type GeometrySet struct {
	Name     string
	Colored  []ColorVertex
	Textured []TexturedVertex
	Indices  []uint16
}

func (g GeometrySet) IndexCount() uint32 {
	return uint32(len(g.Indices))
}

// Pentagon returns the five vertex pentagon, drawn as three triangles.
func Pentagon() GeometrySet {
	positions := [][3]float32{
		{-0.0868241, 0.49240386, 0.0},
		{-0.49513406, 0.06958647, 0.0},
		{-0.21918549, -0.44939706, 0.0},
		{0.35966998, -0.3473291, 0.0},
		{0.44147372, 0.2347359, 0.0},
	}
	texCoords := [][2]float32{
		{0.4131759, 0.00759614},
		{0.0048659444, 0.43041354},
		{0.28081453, 0.949397},
		{0.85967, 0.84732914},
		{0.9414737, 0.2652641},
	}
	g := GeometrySet{
		Name:    "pentagon",
		Indices: []uint16{0, 1, 4, 1, 2, 4, 2, 3, 4},
	}
	for i, p := range positions {
		g.Colored = append(g.Colored, ColorVertex{Position: p, Color: [3]float32{0.5, 0.0, 0.5}})
		g.Textured = append(g.Textured, TexturedVertex{Position: p, TexCoords: texCoords[i]})
	}
	return g
}

// Triangle returns a single RGB triangle.
func Triangle() GeometrySet {
	return GeometrySet{
		Name: "triangle",
		Colored: []ColorVertex{
			{Position: [3]float32{0.0, 0.5, 0.0}, Color: [3]float32{1.0, 0.0, 0.0}},
			{Position: [3]float32{-0.5, -0.5, 0.0}, Color: [3]float32{0.0, 1.0, 0.0}},
			{Position: [3]float32{0.5, -0.5, 0.0}, Color: [3]float32{0.0, 0.0, 1.0}},
		},
		Textured: []TexturedVertex{
			{Position: [3]float32{0.0, 0.5, 0.0}, TexCoords: [2]float32{0.5, 0.0}},
			{Position: [3]float32{-0.5, -0.5, 0.0}, TexCoords: [2]float32{0.0, 1.0}},
			{Position: [3]float32{0.5, -0.5, 0.0}, TexCoords: [2]float32{1.0, 1.0}},
		},
		Indices: []uint16{0, 1, 2},
	}
}
