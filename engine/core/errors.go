package core

import (
	"errors"
	"fmt"
)

var (
	// fatal during startup
	ErrNoAdapter = errors.New("no compatible GPU adapter found")
	ErrNoDevice  = errors.New("failed to request a GPU device")

	// surface acquisition
	ErrSurfaceLost        = errors.New("surface lost")
	ErrSurfaceOutOfMemory = errors.New("surface out of memory")

	// asset loading
	ErrAssetNotFound          = errors.New("asset not found")
	ErrMaterialWithoutTexture = errors.New("material doesn't have a texture name")
	ErrMalformedModel         = errors.New("malformed model data")

	ErrUnknown = errors.New("unknown")
)

// SurfaceError is returned for acquire failures that are neither lost nor
// out of memory. The frame is skipped and the next one tries again.
type SurfaceError struct {
	Status string
	Err    error
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("surface acquire failed: %s", e.Status)
	}
	return fmt.Sprintf("surface acquire failed: %s: %s", e.Status, e.Err)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}

// AssetError ties an asset failure to the name that was requested.
type AssetError struct {
	Name string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %q: %s", e.Name, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the process rather than skip a frame.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSurfaceOutOfMemory) ||
		errors.Is(err, ErrNoAdapter) ||
		errors.Is(err, ErrNoDevice)
}
