// Package view ties the fade compositor to a host element on a scrolling
// page: it measures, listens for scroll and resize notifications and
// repaints.
//
// A View is not safe for concurrent use. All calls, and the notification
// sources and scheduler it is given, are expected to run on one UI thread.
package view

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ivlev/fadescroll/internal/compositor"
	"github.com/ivlev/fadescroll/internal/effects"
	"github.com/ivlev/fadescroll/internal/events"
	"github.com/ivlev/fadescroll/internal/geometry"
	"github.com/ivlev/fadescroll/internal/layout"
	"github.com/ivlev/fadescroll/internal/platform"
	"github.com/ivlev/fadescroll/internal/source"
	"github.com/ivlev/fadescroll/internal/surface"
	"github.com/ivlev/fadescroll/internal/tracker"
)

var (
	ErrNoDocument = errors.New("view: document is required")
	ErrNoHost     = errors.New("view: host element is required")
	ErrNoLoader   = errors.New("view: no image loader configured")
)

type Options struct {
	Document layout.Document
	Host     layout.Element
	// Surface may be nil; painting is then a no-op.
	Surface surface.Surface
	Loader  source.Loader
	Sources []string
	// Axis is "vertical" (default) or "horizontal".
	Axis string
	// Capabilities overrides the process-wide platform snapshot.
	Capabilities *platform.Capabilities
	// Frames schedules scroll paints; nil paints synchronously.
	Frames events.Scheduler
	Logger *zerolog.Logger
}

// Stats counts notifications and paints since construction.
type Stats struct {
	Scrolls   int
	Coalesced int
	Resizes   int
	Paints    int
}

type View struct {
	doc     layout.Document
	host    layout.Element
	region  layout.Region
	canvas  surface.Surface
	loader  source.Loader
	effect  effects.Effect
	pinning bool
	frames  events.Scheduler
	log     zerolog.Logger

	sources   []string
	images    compositor.Sequence
	vp        geometry.ViewportState
	cursor    compositor.Cursor
	scheduled bool
	subs      []events.Subscription
	stats     Stats
}

// New builds a view and subscribes it to scroll and resize notifications.
// Nothing is drawn until Init.
func New(opts Options) (*View, error) {
	if opts.Document == nil {
		return nil, ErrNoDocument
	}
	if opts.Host == nil {
		return nil, ErrNoHost
	}
	eff, err := effects.New(opts.Axis)
	if err != nil {
		return nil, err
	}

	caps := platform.Current()
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	}
	frames := opts.Frames
	if frames == nil {
		frames = events.Immediate{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	v := &View{
		doc:     opts.Document,
		host:    opts.Host,
		region:  layout.FindScrollRegion(opts.Document, opts.Host),
		canvas:  opts.Surface,
		loader:  opts.Loader,
		effect:  eff,
		pinning: caps.Sticky,
		frames:  frames,
		log:     logger.With().Str("component", "view").Logger(),
		sources: append([]string(nil), opts.Sources...),
	}
	v.Attach()

	v.log.Debug().
		Bool("page_region", v.region.IsPage()).
		Bool("sticky", v.pinning).
		Str("axis", eff.Name()).
		Msg("view created")
	return v, nil
}

// Attach subscribes to notifications. It is a no-op when attached.
func (v *View) Attach() {
	if v.subs != nil {
		return
	}
	v.subs = []events.Subscription{}
	if src := v.region.ScrollEvents(); src != nil {
		v.subs = append(v.subs, src.Subscribe(v.onScroll))
	}
	if src := v.doc.ResizeEvents(); src != nil {
		v.subs = append(v.subs, src.Subscribe(v.onResize))
	}
}

// Teardown unsubscribes from all notifications. Calling it on a detached
// view does nothing.
func (v *View) Teardown() {
	if v.subs == nil {
		return
	}
	for _, s := range v.subs {
		s.Unsubscribe()
	}
	v.subs = nil
	v.log.Debug().Msg("view detached")
}

func (v *View) Attached() bool {
	return v.subs != nil
}

// Init renders the loaded images, loading them first if needed.
func (v *View) Init(ctx context.Context) error {
	if len(v.images) > 0 {
		v.initRender()
		return nil
	}
	return v.Load(ctx)
}

// Load fetches the configured sources and renders them. On failure the
// previous sequence stays on screen.
func (v *View) Load(ctx context.Context) error {
	if v.loader == nil {
		return ErrNoLoader
	}
	imgs, err := v.loader.Load(ctx, v.sources)
	if err != nil {
		v.log.Error().Err(err).Int("sources", len(v.sources)).Msg("image load failed")
		return fmt.Errorf("load images: %w", err)
	}
	v.images = compositor.Sequence(imgs)
	v.log.Debug().Int("images", len(imgs)).Msg("images loaded")
	v.initRender()
	return nil
}

// SetSources replaces the source list and reloads.
func (v *View) SetSources(ctx context.Context, ids []string) error {
	v.sources = append([]string(nil), ids...)
	return v.Load(ctx)
}

// SetImages installs an already decoded sequence and renders it.
func (v *View) SetImages(imgs []image.Image) {
	v.images = append(compositor.Sequence(nil), imgs...)
	v.initRender()
}

// SetAxis switches the blend axis and repaints.
func (v *View) SetAxis(axis string) error {
	eff, err := effects.New(axis)
	if err != nil {
		return err
	}
	v.effect = eff
	v.Draw()
	return nil
}

// Draw samples the scroll position and repaints the surface.
func (v *View) Draw() compositor.Cursor {
	return v.paint(tracker.Sample(v.host, v.region, v.vp))
}

func (v *View) Viewport() geometry.ViewportState { return v.vp }
func (v *View) Cursor() compositor.Cursor        { return v.cursor }
func (v *View) Region() layout.Region            { return v.region }
func (v *View) Len() int                         { return len(v.images) }
func (v *View) Stats() Stats                     { return v.stats }
func (v *View) Axis() string                     { return v.effect.Name() }

// ScrollPending reports whether a coalesced scroll paint is queued.
func (v *View) ScrollPending() bool { return v.scheduled }

func (v *View) initRender() {
	v.measure()
	v.Draw()
}

func (v *View) measure() {
	v.vp = geometry.Resolve(v.region, len(v.images), v.pinning)
	if s, ok := v.host.(layout.Sizer); ok {
		s.SetSize(v.vp.SurfaceWidth, v.vp.ContainerExtent)
	}
	if r, ok := v.canvas.(surface.Resizer); ok {
		r.Resize(v.vp.PixelSize())
	}
	v.log.Debug().
		Float64("width", v.vp.SurfaceWidth).
		Float64("height", v.vp.SurfaceHeight).
		Float64("extent", v.vp.ContainerExtent).
		Msg("viewport measured")
}

// onScroll schedules at most one paint per frame. The flag is set before
// scheduling so that a synchronous scheduler leaves it cleared.
func (v *View) onScroll() {
	v.stats.Scrolls++
	if v.scheduled {
		v.stats.Coalesced++
		return
	}
	v.scheduled = true
	v.frames.Schedule(v.scrollFrame)
}

// scrollFrame runs the queued paint. A view detached in the meantime only
// drops the pending flag.
func (v *View) scrollFrame() {
	if v.subs == nil {
		v.scheduled = false
		return
	}
	sample := tracker.Sample(v.host, v.region, v.vp)
	if sample.Top < v.vp.SurfaceHeight {
		v.paint(sample)
	}
	v.scheduled = false
}

func (v *View) onResize() {
	v.stats.Resizes++
	v.measure()
	v.Draw()
}

func (v *View) paint(sample tracker.ScrollSample) compositor.Cursor {
	v.cursor = compositor.Paint(v.canvas, v.images, sample, v.vp, v.effect)
	if v.cursor.Mode != compositor.ModeNone {
		v.stats.Paints++
	}
	v.log.Trace().
		Float64("top", sample.Top).
		Float64("bottom", sample.Bottom).
		Stringer("cursor", v.cursor).
		Msg("paint")
	return v.cursor
}
