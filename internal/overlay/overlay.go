// Package overlay stamps debug information onto rendered frames.
package overlay

import (
	"fmt"
	"image"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// Margin is the distance from the top-left corner of the frame.
const Margin = 8

// Stamp draws a QR code of text, size pixels square, in the top-left
// corner of dst. The code is clipped to dst. It returns the rectangle that
// was covered.
func Stamp(dst draw.Image, text string, size int) (image.Rectangle, error) {
	if size <= 0 {
		return image.Rectangle{}, fmt.Errorf("overlay: bad size %d", size)
	}
	q, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("overlay: %w", err)
	}
	code := q.Image(size)

	origin := dst.Bounds().Min.Add(image.Pt(Margin, Margin))
	r := image.Rectangle{Min: origin, Max: origin.Add(code.Bounds().Size())}.Intersect(dst.Bounds())
	if r.Empty() {
		return image.Rectangle{}, nil
	}
	draw.Draw(dst, r, code, code.Bounds().Min, draw.Src)
	return r, nil
}
