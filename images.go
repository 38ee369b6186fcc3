package sheetsign

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp" // register BMP decoder
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image types understood by the overlay renderer.
const (
	imageTypePNG = "PNG"
	imageTypeJPG = "JPG"
)

// Image is a raster ready to embed in an overlay.
type Image struct {
	Data   []byte
	Type   string // "PNG" or "JPG"
	Width  int    // pixels
	Height int
}

// Images groups the two rasters of a stamping pass.
type Images struct {
	Signature Image
	Blank     Image
}

// PrepareImage decodes data and returns it in a form the overlay renderer
// embeds reliably. JPEG is kept as-is; every other format is re-encoded as
// 8-bit non-interlaced PNG, which also covers 16-bit and interlaced PNGs.
func PrepareImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty data", ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Image{}, fmt.Errorf("%w: zero-sized %s image", ErrInvalidImage, format)
	}

	if format == "jpeg" {
		return Image{Data: data, Type: imageTypeJPG, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: decoding %s: %v", ErrInvalidImage, format, err)
	}

	bounds := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return Image{}, fmt.Errorf("%w: encoding PNG: %v", ErrInvalidImage, err)
	}

	return Image{Data: buf.Bytes(), Type: imageTypePNG, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
