package loaders

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type TextureLoader struct{}

// Load decodes the image at path. The result is an image.Image.
func (tl *TextureLoader) Load(path string) (interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open texture %s", path)
	}
	defer file.Close()

	img, err := DecodeImage(file)
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s", path)
	}
	return img, nil
}

// DecodeImage decodes png, jpeg, gif, bmp, tiff and webp data.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.Errorf("decode image: empty %s image", format)
	}
	return img, nil
}
