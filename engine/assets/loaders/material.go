package loaders

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// MaterialLoader reads Wavefront material libraries (.mtl).
type MaterialLoader struct{}

// Load returns the materials declared in the library at path, sorted by
// name, as a []metadata.MaterialData.
func (ml *MaterialLoader) Load(path string) (interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open material library %s", path)
	}
	defer file.Close()

	materials, err := ParseMTL(file)
	if err != nil {
		return nil, errors.Wrapf(err, "material library %s", path)
	}
	return materials, nil
}

// ParseMTL parses a material library. Only the material name and its
// diffuse map are kept, the lighting terms are ignored.
func ParseMTL(r io.Reader) ([]metadata.MaterialData, error) {
	dec, err := decodeOBJ(strings.NewReader(""), r)
	if err != nil {
		return nil, err
	}

	materials := make([]metadata.MaterialData, 0, len(dec.Materials))
	for _, m := range dec.Materials {
		materials = append(materials, metadata.MaterialData{Name: m.Name, DiffuseTexture: m.MapKd})
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].Name < materials[j].Name })
	return materials, nil
}
