package capture

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"qrmaster/internal/constants"
	"qrmaster/internal/models"
)

var overlayColor = color.RGBA{G: 255, A: 255}

// DrawOverlay returns a copy of the frame with the detected polygon and a label
func DrawOverlay(overlay models.DetectionOverlay) *image.RGBA {
	bounds := overlay.Frame.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, overlay.Frame, bounds.Min, draw.Src)

	corners := overlay.Corners
	for i := range corners {
		next := corners[(i+1)%len(corners)]
		drawLine(dst, corners[i], next, constants.OverlayLineWidth)
	}

	if len(corners) > 0 {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(overlayColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(bounds.Min.X+10, bounds.Min.Y+30),
		}
		d.DrawString(constants.OverlayLabel)
	}

	return dst
}

// drawLine plots a Bresenham line with a square pen of the given width
func drawLine(dst *image.RGBA, from, to models.Point, width int) {
	x0, y0 := int(from.X+0.5), int(from.Y+0.5)
	x1, y1 := int(to.X+0.5), int(to.Y+0.5)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	errAcc := dx + dy
	for {
		plot(dst, x0, y0, width)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func plot(dst *image.RGBA, x, y, width int) {
	half := width / 2
	pen := image.Rect(x-half, y-half, x-half+width, y-half+width).Intersect(dst.Bounds())
	draw.Draw(dst, pen, image.NewUniform(overlayColor), image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
