package effects

import (
	"github.com/ivlev/fadescroll/internal/surface"
)

// VerticalWipe reveals the next image from the bottom: the current image
// keeps its top rows in the shrinking upper span, the next image's bottom
// rows fill the freed span below.
type VerticalWipe struct{}

func (VerticalWipe) Name() string { return AxisVertical }

func (VerticalWipe) Blend(dst surface.Surface, f Frame) {
	if f.Height <= 0 {
		return
	}
	if cur := f.Current; cur != nil {
		h := float64(cur.Bounds().Dy())
		inc := f.Offset * h / f.Height
		DrawRows(dst, cur, 0, h-inc, 0, f.Height-f.Offset, f.Width, f.Height)
	}
	if next := f.Next; next != nil {
		h := float64(next.Bounds().Dy())
		inc := f.Offset * h / f.Height
		DrawRows(dst, next, h-inc, inc, f.Height-f.Offset, f.Offset, f.Width, f.Height)
	}
}

// HorizontalSlide lays the next image down as a background and slides the
// current one off to the left. Scrolling is vertical, so the offset is
// converted to a horizontal shift through the image's scale.
type HorizontalSlide struct{}

func (HorizontalSlide) Name() string { return AxisHorizontal }

func (HorizontalSlide) Blend(dst surface.Surface, f Frame) {
	if dst == nil || f.Height <= 0 {
		return
	}
	DrawStatic(dst, f.Next, f.Width, f.Height)

	cur := f.Current
	if cur == nil {
		return
	}
	b := cur.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	scaled := ScaledWidth(cur, f.Height)

	xShift := f.Offset * scaled / f.Height
	srcShift := xShift * w / scaled

	dst.Save()
	dst.DrawImage(cur, srcShift, 0, w-srcShift, h, (f.Width-scaled)/2+xShift, 0, scaled-xShift, f.Height)
	dst.Restore()
}
