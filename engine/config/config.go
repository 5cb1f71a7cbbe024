package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
)

type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

const DefaultPath = "lumen.toml"

type ApplicationConfig struct {
	Window    WindowConfig   `toml:"window" yaml:"window"`
	Log       LogConfig      `toml:"log" yaml:"log"`
	Renderer  RendererConfig `toml:"renderer" yaml:"renderer"`
	Camera    CameraConfig   `toml:"camera" yaml:"camera"`
	Instances InstanceConfig `toml:"instances" yaml:"instances"`
	Input     InputConfig    `toml:"input" yaml:"input"`
	Assets    AssetsConfig   `toml:"assets" yaml:"assets"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	X      int    `toml:"x" yaml:"x"`
	Y      int    `toml:"y" yaml:"y"`
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// RendererConfig toggles the features of the render state. Model loading
// needs texturing and instancing needs the camera.
type RendererConfig struct {
	Texturing       bool       `toml:"texturing" yaml:"texturing"`
	Camera          bool       `toml:"camera" yaml:"camera"`
	Instancing      bool       `toml:"instancing" yaml:"instancing"`
	Depth           bool       `toml:"depth" yaml:"depth"`
	Model           bool       `toml:"model" yaml:"model"`
	ClearColor      [4]float64 `toml:"clear_color" yaml:"clear_color"`
	DiffuseTexture  string     `toml:"diffuse_texture" yaml:"diffuse_texture"`
	ModelFile       string     `toml:"model_file" yaml:"model_file"`
	PowerPreference string     `toml:"power_preference" yaml:"power_preference"`
}

type CameraConfig struct {
	Eye    [3]float32 `toml:"eye" yaml:"eye"`
	Target [3]float32 `toml:"target" yaml:"target"`
	Up     [3]float32 `toml:"up" yaml:"up"`
	FovY   float32    `toml:"fovy" yaml:"fovy"`
	ZNear  float32    `toml:"znear" yaml:"znear"`
	ZFar   float32    `toml:"zfar" yaml:"zfar"`
	Speed  float32    `toml:"speed" yaml:"speed"`
}

type InstanceConfig struct {
	Rows         uint32     `toml:"rows" yaml:"rows"`
	Cols         uint32     `toml:"cols" yaml:"cols"`
	Spacing      float32    `toml:"spacing" yaml:"spacing"`
	Displacement [3]float32 `toml:"displacement" yaml:"displacement"`
}

type InputConfig struct {
	CyclePipeline string `toml:"cycle_pipeline" yaml:"cycle_pipeline"`
	CycleBuffers  string `toml:"cycle_buffers" yaml:"cycle_buffers"`
}

type AssetsConfig struct {
	// Searched in order, the first existing directory is the asset root.
	Dirs  []string `toml:"dirs" yaml:"dirs"`
	Watch bool     `toml:"watch" yaml:"watch"`
}

func Default() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Title:  "Lumen",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Log: LogConfig{Level: "info"},
		Renderer: RendererConfig{
			Texturing:       true,
			Camera:          true,
			Instancing:      true,
			Depth:           true,
			Model:           true,
			ClearColor:      [4]float64{0.1, 0.2, 0.3, 1.0},
			ModelFile:       "cube.obj",
			PowerPreference: "auto",
		},
		Camera: CameraConfig{
			Eye:    [3]float32{0, 5, -10},
			Target: [3]float32{0, 0, 0},
			Up:     [3]float32{0, 1, 0},
			FovY:   45,
			ZNear:  0.1,
			ZFar:   100,
			Speed:  0.2,
		},
		Instances: InstanceConfig{
			Rows:         10,
			Cols:         10,
			Spacing:      3,
			Displacement: [3]float32{15, 0, 15},
		},
		Input: InputConfig{
			CyclePipeline: "space",
			CycleBuffers:  "tab",
		},
		Assets: AssetsConfig{
			Dirs:  []string{"public/assets", "assets"},
			Watch: true,
		},
	}
}

// Load reads the file at path on top of the defaults. The format is picked
// from the extension.
func Load(path string) (*ApplicationConfig, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses r on top of the defaults and validates the result. Unknown
// keys are rejected.
func Decode(r io.Reader, format Format) (*ApplicationConfig, error) {
	cfg := Default()
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %d", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be non-zero, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	r := c.Renderer
	if r.Model && !r.Texturing {
		return fmt.Errorf("renderer: model loading requires texturing")
	}
	if r.Instancing && !r.Camera {
		return fmt.Errorf("renderer: instancing requires the camera")
	}
	if r.Model && r.ModelFile == "" {
		return fmt.Errorf("renderer: model loading enabled without model_file")
	}
	switch r.PowerPreference {
	case "auto", "high-performance", "low-power":
	default:
		return fmt.Errorf("renderer: unknown power_preference %q", r.PowerPreference)
	}

	cam := c.Camera
	if cam.ZNear <= 0 {
		return fmt.Errorf("camera: znear must be positive, got %v", cam.ZNear)
	}
	if cam.ZFar <= cam.ZNear {
		return fmt.Errorf("camera: zfar (%v) must be greater than znear (%v)", cam.ZFar, cam.ZNear)
	}
	if cam.FovY <= 0 || cam.FovY >= 180 {
		return fmt.Errorf("camera: fovy must be in (0, 180), got %v", cam.FovY)
	}
	if cam.Speed <= 0 {
		return fmt.Errorf("camera: speed must be positive, got %v", cam.Speed)
	}
	if cam.Eye == cam.Target {
		return fmt.Errorf("camera: eye and target must differ")
	}

	if c.Renderer.Instancing && (c.Instances.Rows == 0 || c.Instances.Cols == 0) {
		return fmt.Errorf("instances: grid must be at least 1x1, got %dx%d", c.Instances.Rows, c.Instances.Cols)
	}

	bindings := []struct {
		name string
		key  string
	}{
		{"cycle_pipeline", c.Input.CyclePipeline},
		{"cycle_buffers", c.Input.CycleBuffers},
	}
	bound := make(map[core.KeyCode]string, len(bindings))
	for _, b := range bindings {
		code, err := core.KeyCodeFromName(b.key)
		if err != nil {
			return fmt.Errorf("input %s: %w", b.name, err)
		}
		// Escape quits and the movement keys drive the camera.
		if code == core.KEY_ESCAPE || components.IsMovementKey(code) {
			return fmt.Errorf("input %s: key %q is reserved", b.name, b.key)
		}
		if other, ok := bound[code]; ok {
			return fmt.Errorf("input %s: key %q is already bound to %s", b.name, b.key, other)
		}
		bound[code] = b.name
	}

	if len(c.Assets.Dirs) == 0 {
		return fmt.Errorf("assets: at least one directory is required")
	}
	return nil
}
