package loaders

import (
	"os"

	"github.com/pkg/errors"
)

type ShaderLoader struct{}

// Load returns the WGSL template source at path as a string.
func (sl *ShaderLoader) Load(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	return string(data), nil
}
