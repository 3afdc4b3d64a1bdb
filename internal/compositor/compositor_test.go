package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/fadescroll/internal/effects"
	"github.com/ivlev/fadescroll/internal/geometry"
	"github.com/ivlev/fadescroll/internal/surface"
	"github.com/ivlev/fadescroll/internal/tracker"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func threeFrames() Sequence {
	return Sequence{solid(800, 600, red), solid(800, 600, green), solid(800, 600, blue)}
}

var vp3 = geometry.ViewportState{SurfaceWidth: 800, SurfaceHeight: 600, ContainerExtent: 1800}

func sampleAt(top float64, vp geometry.ViewportState) tracker.ScrollSample {
	return tracker.ScrollSample{Top: top, Bottom: top + vp.ContainerExtent}
}

func TestSelectIndex(t *testing.T) {
	tests := []struct {
		distance float64
		want     int
	}{
		{0, 0},
		{1, 0},
		{599.999, 0},
		{600, 0}, // exact multiple stays on the lower frame
		{math.Nextafter(600, 1000), 1},
		{900, 1},
		{1200, 1},
		{1200.5, 2},
		{1799, 2},
		{5000, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectIndex(tt.distance, 600, 3), "distance %v", tt.distance)
	}

	assert.Equal(t, 0, SelectIndex(1000, 600, 0))
	assert.Equal(t, 0, SelectIndex(1000, 600, 1))
}

func TestSelectIndexMatchesFloorAwayFromBoundaries(t *testing.T) {
	const h = 600.0
	for d := 0.5; d < h*5; d += 37.25 {
		if math.Mod(d, h) == 0 {
			continue
		}
		assert.Equal(t, int(math.Floor(d/h)), SelectIndex(d, h, 5), "distance %v", d)
	}
}

func TestPaintBlendOffsetRange(t *testing.T) {
	seq := threeFrames()
	rec := surface.NewRecorder(nil)

	for top := 0.0; top >= -1200; top -= 25 {
		cur := Paint(rec, seq, sampleAt(top, vp3), vp3, nil)
		require.Equal(t, ModeBlend, cur.Mode, "top %v", top)
		assert.GreaterOrEqual(t, cur.Offset, 0.0)
		assert.LessOrEqual(t, cur.Offset, vp3.SurfaceHeight)
		assert.True(t, cur.Index >= 0 && cur.Index < len(seq))
	}
}

func TestPaintScenarioHalfway(t *testing.T) {
	seq := threeFrames()
	rec := surface.NewRecorder(nil)

	cur := Paint(rec, seq, sampleAt(-300, vp3), vp3, effects.VerticalWipe{})
	assert.Equal(t, Cursor{Index: 0, Offset: 300, Mode: ModeBlend}, cur)

	require.NotEmpty(t, rec.Ops)
	assert.Equal(t, surface.OpClear, rec.Ops[0].Kind)
	assert.Equal(t, surface.Rect{0, 0, 800, 600}, rec.Ops[0].Dst)

	draws := rec.Draws()
	require.Len(t, draws, 2)
	assert.Same(t, seq[0], draws[0].Image)
	assert.Equal(t, surface.Rect{0, 0, 800, 300}, draws[0].Dst)
	assert.Same(t, seq[1], draws[1].Image)
	assert.Equal(t, surface.Rect{0, 300, 800, 300}, draws[1].Dst)
}

func TestPaintPixels(t *testing.T) {
	seq := threeFrames()
	r := surface.NewRaster(800, 600)

	Paint(r, seq, sampleAt(-300, vp3), vp3, effects.VerticalWipe{})
	assert.Equal(t, red, r.Image().RGBAAt(400, 100))
	assert.Equal(t, green, r.Image().RGBAAt(400, 500))

	Paint(r, seq, sampleAt(-900, vp3), vp3, effects.HorizontalSlide{})
	// offset 300 of frame 1: green remnant on the right, blue on the left
	assert.Equal(t, blue, r.Image().RGBAAt(100, 300))
	assert.Equal(t, green, r.Image().RGBAAt(700, 300))
}

func TestPaintIsIdempotent(t *testing.T) {
	seq := threeFrames()
	r := surface.NewRaster(800, 600)
	sample := sampleAt(-750, vp3)

	Paint(r, seq, sample, vp3, nil)
	first := append([]uint8(nil), r.Image().Pix...)

	Paint(r, seq, sample, vp3, nil)
	assert.Equal(t, first, r.Image().Pix)
}

func TestPaintBeforeContainer(t *testing.T) {
	seq := threeFrames()
	rec := surface.NewRecorder(nil)

	cur := Paint(rec, seq, sampleAt(150, vp3), vp3, nil)
	assert.Equal(t, ModeFirst, cur.Mode)

	draws := rec.Draws()
	require.Len(t, draws, 1)
	assert.Same(t, seq[0], draws[0].Image)
	assert.Equal(t, surface.Rect{0, 0, 800, 600}, draws[0].Dst)
}

func TestPaintPastContainer(t *testing.T) {
	seq := threeFrames()
	rec := surface.NewRecorder(nil)

	cur := Paint(rec, seq, tracker.ScrollSample{Top: -1800, Bottom: -1200}, vp3, nil)
	assert.Equal(t, ModeLast, cur.Mode)
	assert.Equal(t, 2, cur.Index)

	draws := rec.Draws()
	require.Len(t, draws, 1)
	assert.Same(t, seq[2], draws[0].Image)
}

func TestPaintLastIndexHasNoIncomingLayer(t *testing.T) {
	seq := threeFrames()
	// longer runway than images, so the last index can straddle
	vp := geometry.ViewportState{SurfaceWidth: 800, SurfaceHeight: 600, ContainerExtent: 2400}
	rec := surface.NewRecorder(nil)

	for _, eff := range []effects.Effect{effects.VerticalWipe{}, effects.HorizontalSlide{}} {
		rec.Reset()
		cur := Paint(rec, seq, sampleAt(-1500, vp), vp, eff)
		require.Equal(t, Cursor{Index: 2, Offset: 300, Mode: ModeBlend}, cur, eff.Name())

		draws := rec.Draws()
		require.Len(t, draws, 1, eff.Name())
		assert.Same(t, seq[2], draws[0].Image)
	}
}

func TestPaintDegradesToNoop(t *testing.T) {
	seq := threeFrames()

	assert.Equal(t, Cursor{}, Paint(nil, seq, sampleAt(-10, vp3), vp3, nil))

	rec := surface.NewRecorder(nil)
	cur := Paint(rec, seq, sampleAt(-10, vp3), geometry.ViewportState{}, nil)
	assert.Equal(t, ModeNone, cur.Mode)
	assert.Empty(t, rec.Ops)

	// empty sequence: clear only
	vp := geometry.ViewportState{SurfaceWidth: 800, SurfaceHeight: 600}
	for _, top := range []float64{100, -10, 0} {
		rec.Reset()
		Paint(rec, nil, sampleAt(top, vp), vp, nil)
		require.Len(t, rec.Ops, 1)
		assert.Equal(t, surface.OpClear, rec.Ops[0].Kind)
	}

	// missing image inside the sequence
	holes := Sequence{nil, seq[1]}
	rec.Reset()
	Paint(rec, holes, sampleAt(50, vp3), vp3, nil)
	assert.Empty(t, rec.Draws())
}

func TestPaintNonFiniteSample(t *testing.T) {
	rec := surface.NewRecorder(nil)
	cur := Paint(rec, threeFrames(), tracker.ScrollSample{Top: math.NaN(), Bottom: math.NaN()}, vp3, nil)
	assert.Equal(t, ModeIdle, cur.Mode)
	assert.Empty(t, rec.Draws())
}

func TestSequenceAt(t *testing.T) {
	seq := threeFrames()
	assert.Nil(t, seq.At(-1))
	assert.Nil(t, seq.At(3))
	assert.Same(t, seq[1], seq.At(1))
	assert.Nil(t, Sequence(nil).At(0))
}

func TestCursorString(t *testing.T) {
	assert.Equal(t, "blend index=1 offset=12.50", Cursor{Index: 1, Offset: 12.5, Mode: ModeBlend}.String())
	assert.Equal(t, "none", ModeNone.String())
	assert.Equal(t, "idle", ModeIdle.String())
}
