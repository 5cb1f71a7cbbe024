package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/lumen/engine/renderer/backend"
)

const DepthFormat = wgpu.TextureFormatDepth32Float

/**
 * @brief A sampled GPU texture: the texture, its default view, a sampler
 * and the size it was created with.
 */
type Texture struct {
	texture backend.Texture
	View    backend.TextureView
	Sampler backend.Sampler
	Width   uint32
	Height  uint32
	Format  wgpu.TextureFormat
}

// NewTextureFromImage uploads img as an sRGB RGBA8 texture with a linear
// clamped sampler.
func NewTextureFromImage(device backend.Device, label string, img image.Image) (*Texture, error) {
	rgba := toRGBA(img)
	size := rgba.Rect.Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("texture %s: empty image", label)
	}

	t := &Texture{
		Width:  uint32(size.X),
		Height: uint32(size.Y),
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
	}
	extent := wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1}

	var err error
	t.texture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        t.Format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", label, err)
	}

	err = device.Queue().WriteTexture(t.texture, rgba.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  4 * t.Width,
		RowsPerImage: t.Height,
	}, &extent)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("texture %s: upload: %w", label, err)
	}

	if t.View, err = t.texture.CreateView(); err != nil {
		t.Release()
		return nil, fmt.Errorf("texture %s: view: %w", label, err)
	}

	t.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("texture %s: sampler: %w", label, err)
	}
	return t, nil
}

// NewDepthTexture creates a depth attachment covering width x height. Its
// sampler compares with LessEqual so the texture can also be sampled.
func NewDepthTexture(device backend.Device, label string, width, height uint32) (*Texture, error) {
	t := &Texture{Width: width, Height: height, Format: DepthFormat}

	var err error
	t.texture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("depth texture: %w", err)
	}
	if t.View, err = t.texture.CreateView(); err != nil {
		t.Release()
		return nil, fmt.Errorf("depth texture: view: %w", err)
	}
	t.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   100,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("depth texture: sampler: %w", err)
	}
	return t, nil
}

func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.Sampler != nil {
		t.Sampler.Release()
		t.Sampler = nil
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Checkerboard generates the fallback diffuse image: size x size pixels in
// cells x cells squares.
func Checkerboard(size, cells int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	dark := color.RGBA{R: 0x40, G: 0x40, B: 0x60, A: 0xFF}
	cell := size / cells
	if cell == 0 {
		cell = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := light
			if (x/cell+y/cell)%2 == 1 {
				c = dark
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
