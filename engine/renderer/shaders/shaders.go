// Package shaders holds the WGSL programs of the renderer. Every program is
// a text/template so that one source covers all feature combinations.
package shaders

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/gogpu/naga"
	"github.com/pkg/errors"
)

const (
	// Vertex colour shading, used by the inline geometry without texturing.
	Color = "color"
	// Diffuse texture shading, used by textured quads and loaded models.
	Textured = "textured"

	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

//go:embed *.wgsl
var sources embed.FS

// Params selects the variant of a program.
type Params struct {
	// Alternate swaps the fragment output for a debug colour.
	Alternate bool
	// Camera multiplies positions by the camera uniform.
	Camera bool
	// Instancing reads a model matrix from vertex slot 1.
	Instancing bool
	// Normals adds the model normal at location 2. Textured only.
	Normals bool

	TextureGroup int
	CameraGroup  int
}

// Source returns the embedded template text for name.
func Source(name string) (string, error) {
	b, err := sources.ReadFile(name + ".wgsl")
	if err != nil {
		return "", errors.Wrapf(err, "unknown shader %q", name)
	}
	return string(b), nil
}

// Render expands the embedded template name with p.
func Render(name string, p Params) (string, error) {
	src, err := Source(name)
	if err != nil {
		return "", err
	}
	return RenderSource(name, src, p)
}

// RenderSource expands an arbitrary template. Used when a program is
// reloaded from disk.
func RenderSource(name, src string, p Params) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", errors.Wrapf(err, "parse shader template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", errors.Wrapf(err, "render shader template %q", name)
	}
	return buf.String(), nil
}

// Validate compiles WGSL through naga and reports the first error.
func Validate(wgsl string) error {
	if _, err := naga.Compile(wgsl); err != nil {
		return fmt.Errorf("invalid WGSL: %w", err)
	}
	return nil
}
