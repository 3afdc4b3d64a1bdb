// Package preview shows rendered frames inline in iTerm2 compatible
// terminals.
package preview

import (
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

// MaxWidth bounds the preview width in pixels.
const MaxWidth = 640

func IsCompatible() bool {
	return os.Getenv("TERM_PROGRAM") == "iTerm.app"
}

// Image writes m as an inline image escape sequence.
func Image(w io.Writer, m image.Image) error {
	if _, err := w.Write([]byte("\x1b]1337;File=inline=1:")); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if err := png.Encode(enc, m); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\x07\n")); err != nil {
		return err
	}
	return nil
}

// Show previews m on f when f is a compatible terminal. It reports
// whether anything was written.
func Show(f *os.File, m image.Image) (bool, error) {
	if f == nil || !term.IsTerminal(int(f.Fd())) || !IsCompatible() {
		return false, nil
	}
	if err := Image(f, Fit(m, MaxWidth)); err != nil {
		return false, err
	}
	return true, nil
}

// Fit downscales m to at most maxWidth pixels wide, keeping the aspect
// ratio. Smaller images are returned as is.
func Fit(m image.Image, maxWidth int) image.Image {
	b := m.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return m
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, m, b, xdraw.Src, nil)
	return dst
}
