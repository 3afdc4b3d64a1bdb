package view

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/fadescroll/internal/compositor"
	"github.com/ivlev/fadescroll/internal/events"
	"github.com/ivlev/fadescroll/internal/geometry"
	"github.com/ivlev/fadescroll/internal/layout"
	"github.com/ivlev/fadescroll/internal/platform"
	"github.com/ivlev/fadescroll/internal/source"
	"github.com/ivlev/fadescroll/internal/surface"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

var sticky = &platform.Capabilities{Sticky: true}

type fixture struct {
	page   *layout.Page
	host   *layout.Box
	rec    *surface.Recorder
	frames *events.FrameQueue
	view   *View
}

func newFixture(t *testing.T, hostTop float64) *fixture {
	t.Helper()
	page := layout.NewPage(800, 600)
	host := page.BodyBox().Append(layout.NewBox("host", hostTop, 800, 0))
	f := &fixture{
		page:   page,
		host:   host,
		rec:    surface.NewRecorder(nil),
		frames: events.NewFrameQueue(),
	}

	loader := source.MemoryLoader{
		"a": solid(800, 600, color.RGBA{255, 0, 0, 255}),
		"b": solid(800, 600, color.RGBA{0, 255, 0, 255}),
		"c": solid(800, 600, color.RGBA{0, 0, 255, 255}),
	}
	v, err := New(Options{
		Document:     page,
		Host:         host,
		Surface:      f.rec,
		Loader:       loader,
		Sources:      []string{"a", "b", "c"},
		Capabilities: sticky,
		Frames:       f.frames,
	})
	require.NoError(t, err)
	f.view = v
	return f
}

func TestNewValidates(t *testing.T) {
	page := layout.NewPage(10, 10)

	_, err := New(Options{Host: page.BodyBox()})
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = New(Options{Document: page})
	assert.ErrorIs(t, err, ErrNoHost)

	_, err = New(Options{Document: page, Host: page.BodyBox(), Axis: "diagonal"})
	assert.Error(t, err)
}

func TestInitMeasuresAndDraws(t *testing.T) {
	f := newFixture(t, 600)
	require.NoError(t, f.view.Init(context.Background()))

	assert.Equal(t, 3, f.view.Len())
	assert.True(t, f.view.Region().IsPage())
	assert.Equal(t, geometry.ViewportState{SurfaceWidth: 800, SurfaceHeight: 600, ContainerExtent: 1800}, f.view.Viewport())

	// the host gets the whole scroll runway
	assert.Equal(t, 800.0, f.host.OffsetWidth())
	assert.Equal(t, 1800.0, f.host.OffsetHeight())

	require.NotEmpty(t, f.rec.Ops)
	assert.Equal(t, surface.OpResize, f.rec.Ops[0].Kind)
	assert.Equal(t, surface.Rect{W: 800, H: 600}, f.rec.Ops[0].Dst)

	// host starts below the fold: first image, whole surface
	assert.Equal(t, compositor.ModeFirst, f.view.Cursor().Mode)
	assert.Len(t, f.rec.Draws(), 1)
}

func TestInitWithoutLoader(t *testing.T) {
	page := layout.NewPage(100, 100)
	v, err := New(Options{Document: page, Host: page.BodyBox(), Capabilities: sticky})
	require.NoError(t, err)
	assert.ErrorIs(t, v.Init(context.Background()), ErrNoLoader)
}

func TestScrollIsCoalesced(t *testing.T) {
	f := newFixture(t, 600)
	require.NoError(t, f.view.Init(context.Background()))
	paints := f.view.Stats().Paints

	for _, y := range []float64{700, 750, 800, 850, 900} {
		f.page.ScrollTo(y)
	}

	assert.True(t, f.view.ScrollPending())
	assert.Equal(t, 1, f.frames.Pending())
	assert.Equal(t, paints, f.view.Stats().Paints)

	require.Equal(t, 1, f.frames.Flush())
	assert.False(t, f.view.ScrollPending())

	// the paint reads the position at frame time, not at notification time
	cur := f.view.Cursor()
	assert.Equal(t, compositor.ModeBlend, cur.Mode)
	assert.Equal(t, 0, cur.Index)
	assert.InDelta(t, 300, cur.Offset, 1e-9)

	st := f.view.Stats()
	assert.Equal(t, 5, st.Scrolls)
	assert.Equal(t, 4, st.Coalesced)
	assert.Equal(t, paints+1, st.Paints)

	// the next notification schedules again
	f.page.ScrollTo(1500)
	assert.Equal(t, 1, f.frames.Pending())
	f.frames.Flush()
	assert.Equal(t, 1, f.view.Cursor().Index)
}

func TestScrollPaintSkippedBelowFold(t *testing.T) {
	f := newFixture(t, 1200)
	require.NoError(t, f.view.Init(context.Background()))
	before := f.view.Stats().Paints
	f.rec.Reset()

	f.page.ScrollTo(100)
	f.frames.Flush()

	assert.Empty(t, f.rec.Ops)
	assert.Equal(t, before, f.view.Stats().Paints)
	assert.False(t, f.view.ScrollPending())
}

func TestResizeRepaintsSynchronously(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.view.Init(context.Background()))
	f.rec.Reset()

	f.page.Resize(400, 300)

	assert.Equal(t, geometry.ViewportState{SurfaceWidth: 400, SurfaceHeight: 300, ContainerExtent: 900}, f.view.Viewport())
	assert.Equal(t, 900.0, f.host.OffsetHeight())
	assert.Equal(t, 0, f.frames.Pending())

	require.NotEmpty(t, f.rec.Ops)
	assert.Equal(t, surface.Rect{W: 400, H: 300}, f.rec.Ops[0].Dst)
	assert.Equal(t, 1, f.view.Stats().Resizes)
}

func TestTeardown(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.view.Init(context.Background()))
	scroll := f.page.ScrollEvents().(*events.Emitter)
	resize := f.page.ResizeEvents().(*events.Emitter)
	assert.Equal(t, 1, scroll.Len())
	assert.Equal(t, 1, resize.Len())

	f.view.Teardown()
	f.view.Teardown()
	assert.False(t, f.view.Attached())
	assert.Equal(t, 0, scroll.Len())
	assert.Equal(t, 0, resize.Len())

	f.page.ScrollTo(300)
	f.page.Resize(100, 100)
	assert.Equal(t, 0, f.frames.Pending())
	assert.Equal(t, 0, f.view.Stats().Scrolls)
	assert.Equal(t, 0, f.view.Stats().Resizes)

	f.view.Attach()
	f.view.Attach()
	assert.Equal(t, 1, scroll.Len())
}

func TestTeardownDropsQueuedPaint(t *testing.T) {
	f := newFixture(t, 600)
	require.NoError(t, f.view.Init(context.Background()))
	paints := f.view.Stats().Paints

	f.page.ScrollTo(900)
	require.Equal(t, 1, f.frames.Pending())
	f.view.Teardown()
	f.rec.Reset()

	require.Equal(t, 1, f.frames.Flush())
	assert.Empty(t, f.rec.Ops)
	assert.Equal(t, paints, f.view.Stats().Paints)
	assert.False(t, f.view.ScrollPending())

	// a reattached view schedules again
	f.view.Attach()
	f.page.ScrollTo(950)
	assert.Equal(t, 1, f.frames.Pending())
}

func TestLoadFailureKeepsSequence(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.view.Init(context.Background()))

	err := f.view.SetSources(context.Background(), []string{"a", "missing"})
	require.Error(t, err)
	assert.Equal(t, 3, f.view.Len())

	require.NoError(t, f.view.SetSources(context.Background(), []string{"c"}))
	assert.Equal(t, 1, f.view.Len())
	assert.Equal(t, 600.0, f.view.Viewport().ContainerExtent)
}

func TestElementRegion(t *testing.T) {
	page := layout.NewPage(1024, 768)
	scroller := page.BodyBox().Append(layout.NewBox("scroller", 100, 500, 400)).SetStyle("overflow-y", "auto")
	host := scroller.Append(layout.NewBox("host", 0, 500, 0))

	v, err := New(Options{Document: page, Host: host, Surface: surface.NewRecorder(nil), Capabilities: sticky})
	require.NoError(t, err)
	v.SetImages([]image.Image{solid(10, 8, color.RGBA{A: 255}), solid(10, 8, color.RGBA{A: 255})})

	assert.False(t, v.Region().IsPage())
	assert.Equal(t, geometry.ViewportState{SurfaceWidth: 500, SurfaceHeight: 400, ContainerExtent: 800}, v.Viewport())

	// page scrolling does not reach an element region
	page.ScrollTo(50)
	assert.Equal(t, 0, v.Stats().Scrolls)

	// synchronous scheduler paints inside the notification
	scroller.SetScrollTop(150)
	assert.Equal(t, 1, v.Stats().Scrolls)
	assert.False(t, v.ScrollPending())
	assert.Equal(t, compositor.ModeBlend, v.Cursor().Mode)
}

func TestWithoutPinning(t *testing.T) {
	page := layout.NewPage(800, 600)
	host := page.BodyBox().Append(layout.NewBox("host", 0, 800, 0))
	v, err := New(Options{Document: page, Host: host, Surface: surface.NewRecorder(nil), Capabilities: &platform.Capabilities{}})
	require.NoError(t, err)

	v.SetImages([]image.Image{solid(4, 3, color.RGBA{A: 255}), solid(4, 3, color.RGBA{A: 255})})
	assert.Equal(t, 600.0, v.Viewport().ContainerExtent)
}

func TestZeroGeometry(t *testing.T) {
	page := layout.NewPage(0, 0)
	rec := surface.NewRecorder(nil)
	v, err := New(Options{Document: page, Host: page.BodyBox(), Surface: rec, Capabilities: sticky})
	require.NoError(t, err)

	v.SetImages([]image.Image{solid(4, 3, color.RGBA{A: 255})})
	assert.True(t, v.Viewport().Empty())
	assert.Empty(t, rec.Draws())
	assert.Equal(t, compositor.ModeNone, v.Cursor().Mode)
}

func TestSetAxis(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.view.Init(context.Background()))

	require.NoError(t, f.view.SetAxis("horizontal"))
	assert.Equal(t, "horizontal", f.view.Axis())
	assert.Error(t, f.view.SetAxis("sideways"))
	assert.Equal(t, "horizontal", f.view.Axis())
}
