package surface

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Quality selects the resampling kernel of a Raster.
type Quality string

const (
	QualityFast   Quality = "fast"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Interpolator maps a quality name to an x/image/draw interpolator.
// Unknown names fall back to medium.
func (q Quality) Interpolator() draw.Interpolator {
	switch q {
	case QualityFast:
		return draw.NearestNeighbor
	case QualityHigh:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// ParseQuality validates a quality name. Empty means medium.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(s); q {
	case "":
		return QualityMedium, nil
	case QualityFast, QualityMedium, QualityHigh:
		return q, nil
	default:
		return "", fmt.Errorf("unknown scaling quality %q (fast, medium, high)", s)
	}
}

type rasterState struct {
	interp draw.Interpolator
}

// Raster is a Surface backed by an *image.RGBA. Drawing composites with
// the Over operator, like a 2D canvas in its default state.
type Raster struct {
	img   *image.RGBA
	state rasterState
	stack []rasterState
}

// NewRaster allocates a transparent width x height surface.
func NewRaster(width, height int) *Raster {
	r := &Raster{state: rasterState{interp: QualityMedium.Interpolator()}}
	r.Resize(width, height)
	return r
}

// Resize reallocates the pixel buffer, the way assigning canvas width and
// height does. The drawing state is reset.
func (r *Raster) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if r.img != nil && r.img.Rect.Dx() == width && r.img.Rect.Dy() == height {
		clear(r.img.Pix)
	} else {
		r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	r.stack = r.stack[:0]
}

// SetQuality changes the resampling kernel for subsequent draws.
func (r *Raster) SetQuality(q Quality) {
	r.state.interp = q.Interpolator()
}

func (r *Raster) Bounds() image.Rectangle {
	return r.img.Rect
}

// Image returns the live pixel buffer.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Snapshot flattens the surface onto bg into dst, which must have the same
// size. Cleared areas come out as bg.
func (r *Raster) Snapshot(dst *image.RGBA, bg color.Color) {
	draw.Draw(dst, dst.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Rect, r.img, r.img.Rect.Min, draw.Over)
}

func (r *Raster) Save() {
	r.stack = append(r.stack, r.state)
}

func (r *Raster) Restore() {
	n := len(r.stack)
	if n == 0 {
		return
	}
	r.state = r.stack[n-1]
	r.stack = r.stack[:n-1]
}

func (r *Raster) ClearRect(x, y, w, h float64) {
	rect := pixelRect(Rect{x, y, w, h}).Intersect(r.img.Rect)
	if rect.Empty() {
		return
	}
	draw.Draw(r.img, rect, image.Transparent, image.Point{}, draw.Src)
}

// DrawImage draws the source rectangle of img scaled into the destination
// rectangle. Parts of the source outside the image are clipped and the
// destination shrinks proportionally. Nil images and empty rectangles draw
// nothing.
func (r *Raster) DrawImage(img image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	if img == nil || r.img == nil {
		return
	}
	if !finite(sx, sy, sw, sh, dx, dy, dw, dh) || !(sw > 0 && sh > 0 && dw > 0 && dh > 0) {
		return
	}

	b := img.Bounds()
	kx, ky := dw/sw, dh/sh

	x0, y0 := math.Max(sx, 0), math.Max(sy, 0)
	x1, y1 := math.Min(sx+sw, float64(b.Dx())), math.Min(sy+sh, float64(b.Dy()))
	if x1 <= x0 || y1 <= y0 {
		return
	}
	dst := Rect{
		X: dx + (x0-sx)*kx,
		Y: dy + (y0-sy)*ky,
		W: (x1 - x0) * kx,
		H: (y1 - y0) * ky,
	}

	clip := pixelRect(dst).Intersect(r.img.Rect)
	if clip.Empty() {
		return
	}

	if kx == 1 && ky == 1 && integral(dst.X, dst.Y, x0, y0) {
		sp := image.Pt(
			b.Min.X+int(x0)+clip.Min.X-int(dst.X),
			b.Min.Y+int(y0)+clip.Min.Y-int(dst.Y),
		)
		draw.Draw(r.img, clip, img, sp, draw.Over)
		return
	}

	sr := image.Rect(
		b.Min.X+int(math.Floor(x0)), b.Min.Y+int(math.Floor(y0)),
		b.Min.X+int(math.Ceil(x1)), b.Min.Y+int(math.Ceil(y1)),
	).Intersect(b)

	m := f64.Aff3{
		kx, 0, dst.X - (float64(b.Min.X)+x0)*kx,
		0, ky, dst.Y - (float64(b.Min.Y)+y0)*ky,
	}
	sub := r.img.SubImage(clip).(*image.RGBA)
	r.state.interp.Transform(sub, m, img, sr, draw.Over, nil)
}

func pixelRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}

func integral(vs ...float64) bool {
	for _, v := range vs {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
