package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief The optional stages of the renderer. With everything off the
 * state draws the inline geometry in vertex colours.
 */
type Features struct {
	Texturing  bool
	Camera     bool
	Instancing bool
	Depth      bool
	Model      bool
}

func (f Features) Validate() error {
	if f.Model && !f.Texturing {
		return fmt.Errorf("model loading requires texturing")
	}
	if f.Instancing && !f.Camera {
		return fmt.Errorf("instancing requires the camera")
	}
	return nil
}

type Bindings struct {
	CyclePipeline core.KeyCode
	CycleBuffers  core.KeyCode
}

type Options struct {
	Features   Features
	ClearColor wgpu.Color
	// Empty selects the generated checkerboard.
	DiffuseTexture string
	ModelFile      string
	Camera         components.Camera
	CameraSpeed    float32
	Instances      metadata.InstanceGrid
	Bindings       Bindings
}

// OptionsFromConfig maps a validated application config onto the render
// state options.
func OptionsFromConfig(cfg *config.ApplicationConfig) (Options, error) {
	r := cfg.Renderer
	opts := Options{
		Features: Features{
			Texturing:  r.Texturing,
			Camera:     r.Camera,
			Instancing: r.Instancing,
			Depth:      r.Depth,
			Model:      r.Model,
		},
		ClearColor:     wgpu.Color{R: r.ClearColor[0], G: r.ClearColor[1], B: r.ClearColor[2], A: r.ClearColor[3]},
		DiffuseTexture: r.DiffuseTexture,
		ModelFile:      r.ModelFile,
		Camera: components.Camera{
			Eye:    vec3(cfg.Camera.Eye),
			Target: vec3(cfg.Camera.Target),
			Up:     vec3(cfg.Camera.Up),
			Aspect: float32(cfg.Window.Width) / float32(cfg.Window.Height),
			FovY:   cfg.Camera.FovY,
			ZNear:  cfg.Camera.ZNear,
			ZFar:   cfg.Camera.ZFar,
		},
		CameraSpeed: cfg.Camera.Speed,
		Instances: metadata.InstanceGrid{
			Rows:         cfg.Instances.Rows,
			Cols:         cfg.Instances.Cols,
			Spacing:      cfg.Instances.Spacing,
			Displacement: vec3(cfg.Instances.Displacement),
		},
	}
	if err := opts.Features.Validate(); err != nil {
		return Options{}, err
	}

	var err error
	if opts.Bindings.CyclePipeline, err = core.KeyCodeFromName(cfg.Input.CyclePipeline); err != nil {
		return Options{}, err
	}
	if opts.Bindings.CycleBuffers, err = core.KeyCodeFromName(cfg.Input.CycleBuffers); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	opts, err := OptionsFromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return opts
}

func vec3(v [3]float32) math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}
