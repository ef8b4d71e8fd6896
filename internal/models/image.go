package models

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// EncodedImage is a generated QR code raster together with its source text
type EncodedImage struct {
	Text    string
	Image   image.Image
	Modules [][]bool
}

// Width returns the raster width in pixels
func (e *EncodedImage) Width() int {
	return e.Image.Bounds().Dx()
}

// Height returns the raster height in pixels
func (e *EncodedImage) Height() int {
	return e.Image.Bounds().Dy()
}

// Thumbnail returns the image scaled down to fit in a size x size box.
// Images that already fit are returned as is.
func (e *EncodedImage) Thumbnail(size int) image.Image {
	w, h := e.Width(), e.Height()
	if size <= 0 || (w <= size && h <= size) {
		return e.Image
	}

	// Keep the aspect ratio
	tw, th := size, size
	if w > h {
		th = h * size / w
	} else if h > w {
		tw = w * size / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	// Nearest neighbour keeps module edges sharp
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), e.Image, e.Image.Bounds(), draw.Src, nil)
	return dst
}

// PNG encodes the full resolution raster as PNG
func (e *EncodedImage) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, e.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
