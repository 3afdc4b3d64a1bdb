// Package compositor maps a scroll position to the image pair on screen
// and paints it.
package compositor

import (
	"fmt"
	"image"

	"github.com/ivlev/fadescroll/internal/effects"
	"github.com/ivlev/fadescroll/internal/geometry"
	"github.com/ivlev/fadescroll/internal/surface"
	"github.com/ivlev/fadescroll/internal/tracker"
)

// Sequence is the ordered list of decoded images. It is replaced whole on
// reload, never mutated in place.
type Sequence []image.Image

// At returns the image at i, nil when i is out of range.
func (s Sequence) At(i int) image.Image {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Mode tells which paint branch ran.
type Mode int

const (
	// ModeNone: nothing was painted (no surface or zero geometry).
	ModeNone Mode = iota
	ModeBlend
	ModeFirst
	ModeLast
	// ModeIdle: no branch matched, which takes a non-finite sample. The
	// surface stays cleared.
	ModeIdle
)

func (m Mode) String() string {
	switch m {
	case ModeBlend:
		return "blend"
	case ModeFirst:
		return "first"
	case ModeLast:
		return "last"
	case ModeIdle:
		return "idle"
	default:
		return "none"
	}
}

// Cursor is the play position derived from one scroll sample.
type Cursor struct {
	Index  int
	Offset float64
	Mode   Mode
}

func (c Cursor) String() string {
	return fmt.Sprintf("%s index=%d offset=%.2f", c.Mode, c.Index, c.Offset)
}

// SelectIndex returns the last index i with distance > height*i, or 0.
// An exact multiple of height still belongs to the lower index.
func SelectIndex(distance, height float64, length int) int {
	index := 0
	for i := 0; i < length; i++ {
		if distance > height*float64(i) {
			index = i
		}
	}
	return index
}

// Paint clears the surface and draws the frame for sample. It never fails:
// missing surface, images or geometry degrade to skipped layers.
func Paint(dst surface.Surface, seq Sequence, sample tracker.ScrollSample, vp geometry.ViewportState, eff effects.Effect) Cursor {
	if dst == nil || vp.Empty() {
		return Cursor{}
	}
	if eff == nil {
		eff = effects.VerticalWipe{}
	}

	distance := sample.Distance()
	cur := Cursor{Index: SelectIndex(distance, vp.SurfaceHeight, len(seq))}

	dst.ClearRect(0, 0, vp.SurfaceWidth, vp.SurfaceHeight)

	switch {
	case sample.Straddles(vp.SurfaceHeight):
		cur.Mode = ModeBlend
		cur.Offset = distance - vp.SurfaceHeight*float64(cur.Index)
		eff.Blend(dst, effects.Frame{
			Current: seq.At(cur.Index),
			Next:    seq.At(cur.Index + 1),
			Offset:  cur.Offset,
			Width:   vp.SurfaceWidth,
			Height:  vp.SurfaceHeight,
		})
	case sample.Top > 0:
		cur.Mode = ModeFirst
		effects.DrawStatic(dst, seq.At(0), vp.SurfaceWidth, vp.SurfaceHeight)
	case sample.Bottom < vp.SurfaceHeight:
		cur.Mode = ModeLast
		effects.DrawStatic(dst, seq.At(len(seq)-1), vp.SurfaceWidth, vp.SurfaceHeight)
	default:
		cur.Mode = ModeIdle
	}
	return cur
}
