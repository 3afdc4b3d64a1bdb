package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/fadescroll/internal/compositor"
	"github.com/ivlev/fadescroll/internal/config"
	"github.com/ivlev/fadescroll/internal/events"
	"github.com/ivlev/fadescroll/internal/layout"
	"github.com/ivlev/fadescroll/internal/overlay"
	"github.com/ivlev/fadescroll/internal/platform"
	"github.com/ivlev/fadescroll/internal/scenario"
	"github.com/ivlev/fadescroll/internal/source"
	"github.com/ivlev/fadescroll/internal/surface"
	"github.com/ivlev/fadescroll/internal/system"
	"github.com/ivlev/fadescroll/internal/video"
	"github.com/ivlev/fadescroll/internal/view"
)

// OverlaySize is the side of the debug QR stamp in pixels.
const OverlaySize = 96

// Project renders a fade-scroll video: a simulated page with the fade view
// embedded is scrolled along a timeline and the drawing surface is
// captured every frame.
type Project struct {
	Config *config.Config
	Loader source.Loader
	Sink   video.FrameSink

	// Out receives the console progress lines; nil means stdout.
	Out io.Writer
	// BenchmarkLog is appended to when Config.ShowStats is set.
	BenchmarkLog string

	page     *layout.Page
	host     *layout.Box
	scroller *layout.Box
	raster   *surface.Raster
	frames   *events.FrameQueue
	view     *view.View
	pool     *system.ImagePool
	logger   zerolog.Logger
}

func NewProject(cfg *config.Config, loader source.Loader, sink video.FrameSink) *Project {
	return &Project{
		Config:       cfg,
		Loader:       loader,
		Sink:         sink,
		BenchmarkLog: "benchmark.log",
		pool:         system.NewImagePool(),
		logger:       log.Logger.With().Str("component", "engine").Logger(),
	}
}

// Report summarizes a finished render.
type Report struct {
	RunID     string
	Frames    int
	Images    int
	Duration  float64
	Setup     time.Duration
	Render    time.Duration
	Total     time.Duration
	View      view.Stats
	Pool      system.PoolStats
	Memory    system.MemoryReport
	MemoryErr error
}

// EffectiveFPS is the number of frames produced per wall clock second.
func (r Report) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

func (p *Project) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Setup builds the simulated page and view and loads the images. It is a
// no-op once done.
func (p *Project) Setup(ctx context.Context) error {
	if p.view != nil {
		return nil
	}
	cfg := p.Config
	if cfg == nil {
		return errors.New("engine: no config")
	}
	if p.Loader == nil {
		return errors.New("engine: no image loader")
	}
	if p.pool == nil {
		p.pool = system.NewImagePool()
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	p.page = layout.NewPage(w, h)
	body := p.page.BodyBox()
	if cfg.Region == config.RegionElement {
		p.scroller = body.Append(layout.NewBox("scroller", 0, w, h)).SetStyle("overflow-y", "auto")
		p.host = p.scroller.Append(layout.NewBox("fadescroll", cfg.HostOffset, w, 0))
	} else {
		p.host = body.Append(layout.NewBox("fadescroll", cfg.HostOffset, w, 0))
	}

	quality, err := surface.ParseQuality(cfg.Scaling)
	if err != nil {
		return err
	}
	p.raster = surface.NewRaster(cfg.Width, cfg.Height)
	p.raster.SetQuality(quality)
	p.frames = events.NewFrameQueue()

	caps := platform.Resolve(cfg.Pinning)
	v, err := view.New(view.Options{
		Document:     p.page,
		Host:         p.host,
		Surface:      p.raster,
		Loader:       p.Loader,
		Sources:      cfg.Inputs,
		Axis:         cfg.Axis,
		Capabilities: &caps,
		Frames:       p.frames,
		Logger:       &p.logger,
	})
	if err != nil {
		return err
	}
	if err := v.Init(ctx); err != nil {
		v.Teardown()
		return err
	}
	p.view = v

	p.logger.Debug().
		Int("images", v.Len()).
		Bool("sticky", caps.Sticky).
		Str("region", cfg.Region).
		Msg("project ready")
	return nil
}

// Scenario returns the timeline to render: the configured scenario file,
// or a generated sweep over the loaded images. Setup must have run.
func (p *Project) Scenario() (*scenario.Scenario, error) {
	cfg := p.Config
	if p.view == nil {
		return nil, errors.New("engine: project is not set up")
	}

	var sc *scenario.Scenario
	if cfg.ScenarioInput != "" {
		s, err := scenario.ReadScenario(cfg.ScenarioInput)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения сценария: %w", err)
		}
		// Длительность из конфига (например, по аудио) важнее сценария
		if cfg.TotalDuration > 0 && cfg.TotalDuration != s.Duration {
			fmt.Fprintf(p.out(), "[*] Сценарий масштабирован под длительность %.2fs (x%.3f)\n", cfg.TotalDuration, cfg.TotalDuration/s.Duration)
			s.Scale(cfg.TotalDuration)
		}
		sc = s
	} else {
		duration := cfg.TotalDuration
		if duration <= 0 {
			duration = cfg.ImageDuration * float64(p.view.Len())
		}
		s, err := scenario.GenerateSweep(p.view.Viewport(), cfg.HostOffset, duration)
		if err != nil {
			return nil, err
		}
		sc = s
	}

	if cfg.ScenarioOutput != "" {
		if err := scenario.WriteScenario(sc, cfg.ScenarioOutput); err != nil {
			return nil, fmt.Errorf("ошибка записи сценария: %w", err)
		}
		fmt.Fprintf(p.out(), "[*] Сценарий сохранён: %s\n", cfg.ScenarioOutput)
	}
	return sc, nil
}

type renderedFrame struct {
	index int
	img   *image.RGBA
}

// Run renders the whole timeline into the sink and closes it.
func (p *Project) Run(ctx context.Context) (rep Report, err error) {
	startTime := time.Now()
	defer func() {
		if p.Sink == nil {
			return
		}
		if cerr := p.Sink.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("ошибка сборки видео: %w", cerr)
		}
	}()
	if p.Sink == nil {
		return rep, errors.New("engine: no frame sink")
	}

	u, err := uuid.NewRandom()
	if err != nil {
		return rep, err
	}
	rep.RunID = u.String()
	p.logger = p.logger.With().Str("run", rep.RunID).Logger()

	if err := p.Setup(ctx); err != nil {
		return rep, err
	}
	defer p.view.Teardown()

	sc, err := p.Scenario()
	if err != nil {
		return rep, err
	}
	rep.Setup = time.Since(startTime)
	rep.Images = p.view.Len()
	rep.Duration = sc.Duration

	cfg := p.Config
	total := sc.Frames(cfg.FPS)
	if total == 0 {
		return rep, fmt.Errorf("сценарий не содержит кадров")
	}

	fmt.Fprintln(p.out(), "--- [PROJECT: FADESCROLL] ---")
	fmt.Fprintf(p.out(), "[*] Изображений: %d | Кадров: %d | Длительность: %.2fs\n", rep.Images, total, sc.Duration)
	fmt.Fprintf(p.out(), "[*] Разрешение: %dx%d @ %d FPS | Ось: %s\n", cfg.Width, cfg.Height, cfg.FPS, p.view.Axis())
	fmt.Fprintln(p.out(), "-----------------------------")

	renderStart := time.Now()
	frames := make(chan renderedFrame, 8)
	g, gctx := errgroup.WithContext(ctx)

	// Вид не потокобезопасен: весь рендер идёт в одной горутине
	g.Go(func() error {
		defer close(frames)
		step := 1 / float64(cfg.FPS)
		for i := 0; i < total; i++ {
			t := float64(i) * step
			img, err := p.renderAt(sc, t, step)
			if err != nil {
				return err
			}
			select {
			case frames <- renderedFrame{index: i, img: img}:
			case <-gctx.Done():
				p.pool.Put(img)
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for f := range frames {
			err := p.Sink.WriteFrame(gctx, f.index, f.img)
			p.pool.Put(f.img)
			if err != nil {
				// drain so the renderer can exit
				for f := range frames {
					p.pool.Put(f.img)
				}
				return err
			}
			rep.Frames++
			if (f.index+1)%cfg.FPS == 0 || f.index+1 == total {
				fmt.Fprintf(p.out(), "[>] Готово: %d/%d\n", f.index+1, total)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return rep, err
	}

	rep.Render = time.Since(renderStart)
	rep.Total = time.Since(startTime)
	rep.View = p.view.Stats()
	rep.Pool = p.pool.Stats()
	rep.Memory, rep.MemoryErr = system.ReadMemory()

	if cfg.ShowStats {
		p.writeReport(rep)
	}
	return rep, nil
}

// renderAt advances the simulated page to time t and captures the
// surface. step is the frame interval for due resizes.
func (p *Project) renderAt(sc *scenario.Scenario, t, step float64) (*image.RGBA, error) {
	for _, r := range sc.ResizesBetween(t, t+step) {
		p.resize(r.Width, r.Height)
	}
	p.scrollTo(sc.ScrollAt(t))
	p.frames.Flush()
	return p.capture()
}

// RenderFrame renders the single frame shown at scroll offset y. The
// returned image belongs to the caller.
func (p *Project) RenderFrame(ctx context.Context, y float64) (*image.RGBA, compositor.Cursor, error) {
	if err := p.Setup(ctx); err != nil {
		return nil, compositor.Cursor{}, err
	}
	p.scrollTo(y)
	p.frames.Flush()
	cur := p.view.Draw()

	frame, err := p.capture()
	if err != nil {
		return nil, cur, err
	}
	out := image.NewRGBA(frame.Rect)
	copy(out.Pix, frame.Pix)
	p.pool.Put(frame)
	return out, cur, nil
}

// View exposes the underlying view once Setup has run.
func (p *Project) View() *view.View {
	return p.view
}

// Close detaches the view.
func (p *Project) Close() {
	if p.view != nil {
		p.view.Teardown()
	}
}

func (p *Project) scrollTo(y float64) {
	if p.scroller != nil {
		p.scroller.SetScrollTop(y)
		return
	}
	p.page.ScrollTo(y)
}

func (p *Project) resize(w, h float64) {
	if p.scroller != nil {
		p.scroller.SetSize(w, h)
	}
	p.page.Resize(w, h)
	p.logger.Debug().Float64("width", w).Float64("height", h).Msg("viewport resized")
}

// capture copies the surface into a pooled output-sized frame. A surface
// of a different size (after a resize) is letterboxed on black.
func (p *Project) capture() (*image.RGBA, error) {
	cfg := p.Config
	frame := p.pool.Get(image.Rect(0, 0, cfg.Width, cfg.Height))

	src := p.raster.Image()
	sb := src.Rect
	if sb.Size() == frame.Rect.Size() {
		p.raster.Snapshot(frame, color.Black)
	} else {
		draw.Draw(frame, frame.Rect, image.Black, image.Point{}, draw.Src)
		if !sb.Empty() {
			xdraw.ApproxBiLinear.Scale(frame, fitRect(sb.Size(), frame.Rect), src, sb, xdraw.Over, nil)
		}
	}

	if cfg.Debug {
		if _, err := overlay.Stamp(frame, p.view.Cursor().String(), OverlaySize); err != nil {
			p.pool.Put(frame)
			return nil, err
		}
	}
	return frame, nil
}

// fitRect centers a rectangle of size src, scaled to fit inside dst.
func fitRect(src image.Point, dst image.Rectangle) image.Rectangle {
	dw, dh := dst.Dx(), dst.Dy()
	if src.X <= 0 || src.Y <= 0 {
		return image.Rectangle{}
	}
	w, h := dw, src.Y*dw/src.X
	if h > dh {
		w, h = src.X*dh/src.Y, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func (p *Project) writeReport(rep Report) {
	cfg := p.Config
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Run: %s\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Setup (load): %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Frames: %d (%.2fs of video)\n"+
			"Effective FPS: %.2f\n"+
			"Paints: %d | Scrolls: %d | Coalesced: %d | Resizes: %d\n"+
			"Pool: %d gets, %d allocs\n"+
			"----------------------------\n",
		rep.RunID, cfg.BuildVersion, rep.Total.Seconds(), rep.Setup.Seconds(), rep.Render.Seconds(),
		rep.Frames, rep.Duration, rep.EffectiveFPS(),
		rep.View.Paints, rep.View.Scrolls, rep.View.Coalesced, rep.View.Resizes,
		rep.Pool.Gets, rep.Pool.Allocs,
	)
	fmt.Fprint(p.out(), report)
	if rep.MemoryErr == nil {
		fmt.Fprintf(p.out(), "[*] %s\n", rep.Memory)
	}

	if p.BenchmarkLog == "" {
		return
	}
	name := "-"
	if len(cfg.Inputs) > 0 {
		name = filepath.Base(cfg.Inputs[0])
	}
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Images: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f | Run: %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		name,
		rep.Images,
		rep.Frames,
		rep.Total.Seconds(),
		rep.Render.Seconds(),
		rep.EffectiveFPS(),
		rep.RunID,
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(p.out(), "[!] Не удалось записать %s: %v\n", p.BenchmarkLog, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(logEntry); err != nil {
		p.logger.Warn().Err(err).Msg("benchmark log write failed")
	}
}
