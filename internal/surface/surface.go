// Package surface defines the canvas-like drawing surface the compositor
// paints on, and a raster implementation of it.
package surface

import "image"

// Surface is a 2D drawing context. Rectangles are in floating point
// pixels; source rectangles are in the image's own coordinate space,
// relative to its bounds origin.
type Surface interface {
	ClearRect(x, y, w, h float64)
	DrawImage(img image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64)
	Save()
	Restore()
}

// Resizer is implemented by surfaces whose pixel size can be reassigned.
// Resizing clears the surface.
type Resizer interface {
	Resize(width, height int)
}

// Rect is a floating point rectangle.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Empty() bool {
	return !(r.W > 0 && r.H > 0)
}
