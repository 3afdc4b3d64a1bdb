package effects

import (
	"image"

	"github.com/ivlev/fadescroll/internal/surface"
)

// Frame is everything a blend routine needs for one paint.
type Frame struct {
	Current image.Image // outgoing image, may be nil
	Next    image.Image // incoming image, nil on the last index
	Offset  float64     // scroll progress toward Next, in surface pixels
	Width   float64     // surface width
	Height  float64     // surface height
}

// Effect draws the transition between Current and Next.
type Effect interface {
	Name() string
	Blend(dst surface.Surface, f Frame)
}

// ScaledWidth is the image width after fitting its height to height.
func ScaledWidth(img image.Image, height float64) float64 {
	b := img.Bounds()
	if b.Dy() <= 0 {
		return 0
	}
	return float64(b.Dx()) * height / float64(b.Dy())
}

// DrawRows draws the full-width source rows [sy, sy+sh) of img into the
// surface rows [dy, dy+dh), scaled by height and centered horizontally.
func DrawRows(dst surface.Surface, img image.Image, sy, sh, dy, dh, width, height float64) {
	if dst == nil || img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return
	}
	scaled := ScaledWidth(img, height)

	dst.Save()
	dst.DrawImage(img, 0, sy, float64(b.Dx()), sh, (width-scaled)/2, dy, scaled, dh)
	dst.Restore()
}

// DrawStatic draws the whole image filling the surface height.
func DrawStatic(dst surface.Surface, img image.Image, width, height float64) {
	if img == nil {
		return
	}
	DrawRows(dst, img, 0, float64(img.Bounds().Dy()), 0, height, width, height)
}
