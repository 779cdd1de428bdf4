// Package loader turns asset files into render resources.
//
// Images decode through the standard image registry extended with BMP.
// Shaders are WGSL; their entry points and uniform names are scanned from
// the source. Materials are TOML documents naming a shader, an optional
// texture and uniform definitions:
//
//	shader = "shaders/sprite.wgsl"
//	texture = "images/hero.png"
//
//	[[uniforms]]
//	name = "view_projection"
//	type = "mat4"
//	automatic = "model_view_projection"
//
//	[[uniforms]]
//	name = "tint"
//	type = "vec4"
//	value = [1.0, 0.5, 0.5, 1.0]
//
// A Store loads each path once through a render.Interface and caches the
// resulting handle.
package loader

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"

	_ "golang.org/x/image/bmp" // register BMP
)

// ErrUnsupportedImage is returned for image data no decoder recognizes.
var ErrUnsupportedImage = errors.New("loader: unsupported image format")

// DecodeImage decodes a PNG, JPEG or BMP image and returns its format
// name.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupportedImage
	}
	if err != nil {
		return nil, "", fmt.Errorf("loader: decode image: %w", err)
	}
	return img, format, nil
}
