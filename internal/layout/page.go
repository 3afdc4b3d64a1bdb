package layout

import (
	"sync"

	"github.com/ivlev/fadescroll/internal/events"
)

// Box is an in-memory Element. Offsets are relative to the page origin.
type Box struct {
	Name string

	mu           sync.RWMutex
	parent       *Box
	styles       map[string]string
	offsetTop    float64
	offsetWidth  float64
	offsetHeight float64
	scrollTop    float64
	scroll       *events.Emitter
}

// NewBox creates a detached box with the given geometry.
func NewBox(name string, top, width, height float64) *Box {
	return &Box{
		Name:         name,
		styles:       make(map[string]string),
		offsetTop:    top,
		offsetWidth:  width,
		offsetHeight: height,
		scroll:       events.NewEmitter(),
	}
}

// Append attaches child under b and returns the child.
func (b *Box) Append(child *Box) *Box {
	child.mu.Lock()
	child.parent = b
	child.mu.Unlock()
	return child
}

// SetStyle sets a computed style property, e.g. "overflow-y": "auto".
func (b *Box) SetStyle(prop, value string) *Box {
	b.mu.Lock()
	b.styles[prop] = value
	b.mu.Unlock()
	return b
}

func (b *Box) Parent() (Element, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

func (b *Box) ComputedStyle(prop string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.styles[prop]
}

func (b *Box) OffsetTop() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetTop
}

func (b *Box) OffsetWidth() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetWidth
}

func (b *Box) OffsetHeight() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetHeight
}

func (b *Box) ScrollTop() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scrollTop
}

func (b *Box) SetOffsetTop(top float64) {
	b.mu.Lock()
	b.offsetTop = top
	b.mu.Unlock()
}

// SetSize implements Sizer.
func (b *Box) SetSize(width, height float64) {
	b.mu.Lock()
	b.offsetWidth = width
	b.offsetHeight = height
	b.mu.Unlock()
}

// SetScrollTop scrolls the box and notifies its subscribers.
func (b *Box) SetScrollTop(top float64) {
	b.mu.Lock()
	b.scrollTop = top
	b.mu.Unlock()
	b.scroll.Emit()
}

// ScrollEvents implements ScrollNotifier.
func (b *Box) ScrollEvents() events.Source {
	return b.scroll
}

// Page is an in-memory Document. ViewportHeight is what a fixed
// full-height probe measures; InnerHeight may differ while mobile browser
// chrome is shown.
type Page struct {
	mu             sync.RWMutex
	body           *Box
	innerWidth     float64
	innerHeight    float64
	viewportHeight float64
	scrollY        float64
	scroll         *events.Emitter
	resize         *events.Emitter
}

// NewPage creates a page with a viewport of width x height pixels.
func NewPage(width, height float64) *Page {
	return &Page{
		body:           NewBox("body", 0, width, height),
		innerWidth:     width,
		innerHeight:    height,
		viewportHeight: height,
		scroll:         events.NewEmitter(),
		resize:         events.NewEmitter(),
	}
}

func (p *Page) Body() Element {
	return p.body
}

// BodyBox returns the body as a Box, to append children to.
func (p *Page) BodyBox() *Box {
	return p.body
}

func (p *Page) InnerWidth() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.innerWidth
}

// InnerHeight is the naive viewport height. The view never uses it.
func (p *Page) InnerHeight() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.innerHeight
}

func (p *Page) ScrollY() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scrollY
}

func (p *Page) ProbeFixedHeight() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.viewportHeight
}

func (p *Page) ScrollEvents() events.Source {
	return p.scroll
}

func (p *Page) ResizeEvents() events.Source {
	return p.resize
}

// ScrollTo sets the page scroll offset and emits a scroll notification.
func (p *Page) ScrollTo(y float64) {
	p.mu.Lock()
	p.scrollY = y
	p.mu.Unlock()
	p.scroll.Emit()
}

// Resize changes the viewport and emits a resize notification.
func (p *Page) Resize(width, height float64) {
	p.mu.Lock()
	p.innerWidth = width
	p.innerHeight = height
	p.viewportHeight = height
	p.mu.Unlock()
	p.body.SetSize(width, height)
	p.resize.Emit()
}

// SetChrome simulates mobile browser chrome shrinking the naive inner
// height without changing the layout viewport.
func (p *Page) SetChrome(px float64) {
	p.mu.Lock()
	p.innerHeight = p.viewportHeight - px
	p.mu.Unlock()
}
