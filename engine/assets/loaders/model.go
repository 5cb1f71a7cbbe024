package loaders

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ModelLoader picks the model format from the file extension. The result
// is a *metadata.ModelData.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string) (interface{}, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	default:
		return nil, errors.Errorf("unsupported model format %q", filepath.Ext(path))
	}
}
