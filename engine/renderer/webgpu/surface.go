package webgpu

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/backend"
)

type surface struct {
	s       *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
}

func (s *surface) Capabilities() backend.SurfaceCapabilities {
	caps := s.s.GetCapabilities(s.adapter)
	return backend.SurfaceCapabilities{
		Formats:      caps.Formats,
		PresentModes: caps.PresentModes,
		AlphaModes:   caps.AlphaModes,
	}
}

func (s *surface) Configure(cfg *backend.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("cannot configure a %dx%d surface", cfg.Width, cfg.Height)
	}
	s.s.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       cfg.Usage,
		Format:      cfg.Format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: cfg.PresentMode,
		AlphaMode:   cfg.AlphaMode,
	})
	return nil
}

func (s *surface) AcquireTexture() (backend.Texture, error) {
	tex, err := s.s.GetCurrentTexture()
	if err != nil {
		return nil, classifyAcquireError(err)
	}
	if isNullTexture(tex) {
		return nil, fmt.Errorf("%w: surface returned no texture", core.ErrSurfaceLost)
	}
	return &texture{tex}, nil
}

// isNullTexture reports whether tex wraps no native handle. The binding
// drops the acquire status, so a lost or outdated surface can hand back a
// null texture without an error. Querying a null handle aborts inside
// wgpu-native, hence the look at the handle itself.
func isNullTexture(tex *wgpu.Texture) bool {
	if tex == nil {
		return true
	}
	ref := reflect.ValueOf(tex).Elem().FieldByName("ref")
	return ref.IsValid() && ref.Kind() == reflect.Ptr && ref.IsNil()
}

func (s *surface) Present() {
	s.s.Present()
}

func (s *surface) Release() {
	if s.s != nil {
		s.s.Release()
		s.s = nil
	}
}

// classifyAcquireError maps the status carried by a GetCurrentTexture
// error onto the engine error kinds. wgpu reports the status only in the
// message text.
func classifyAcquireError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "outofmemory"), strings.Contains(msg, "out of memory"):
		return fmt.Errorf("%w: %v", core.ErrSurfaceOutOfMemory, err)
	case strings.Contains(msg, "lost"), strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", core.ErrSurfaceLost, err)
	case strings.Contains(msg, "timeout"):
		return &core.SurfaceError{Status: "timeout", Err: err}
	default:
		return &core.SurfaceError{Status: "unknown", Err: err}
	}
}
