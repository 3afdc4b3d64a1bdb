// Package layout describes the measurements the fade view needs from the
// page it is embedded in, and provides an in-memory page for simulation.
package layout

import (
	"regexp"

	"github.com/ivlev/fadescroll/internal/events"
)

// Element is a laid-out node of the page.
type Element interface {
	// Parent returns the containing element, false at the root.
	Parent() (Element, bool)
	ComputedStyle(prop string) string
	OffsetTop() float64
	OffsetWidth() float64
	OffsetHeight() float64
	ScrollTop() float64
}

// Document is the page hosting the elements.
type Document interface {
	Body() Element
	InnerWidth() float64
	ScrollY() float64
	// ProbeFixedHeight measures a position:fixed;top:0;height:100vh probe.
	// Mobile browser chrome makes the cached inner height unreliable.
	ProbeFixedHeight() float64
	ScrollEvents() events.Source
	ResizeEvents() events.Source
}

// Sizer is implemented by elements whose box the view may size.
type Sizer interface {
	SetSize(width, height float64)
}

// ScrollNotifier is implemented by scrollable elements that emit scroll
// notifications of their own.
type ScrollNotifier interface {
	ScrollEvents() events.Source
}

var scrollOverflow = regexp.MustCompile(`(auto|scroll)`)

// IsScrollable reports whether el clips and scrolls its overflow.
func IsScrollable(el Element) bool {
	if el == nil {
		return false
	}
	s := el.ComputedStyle("overflow") + el.ComputedStyle("overflow-y") + el.ComputedStyle("overflow-x")
	return scrollOverflow.MatchString(s)
}

// Region is the scroll container whose offset drives the effect: either
// the whole page or a scrollable element.
type Region struct {
	doc Document
	el  Element
}

// PageRegion returns the whole-page region of doc.
func PageRegion(doc Document) Region {
	return Region{doc: doc}
}

// ElementRegion returns a region backed by a scrollable element.
func ElementRegion(doc Document, el Element) Region {
	return Region{doc: doc, el: el}
}

// FindScrollRegion walks from host up the parent chain and returns the
// first scrollable node. The search stops at the body or at a node without
// parent, in which case the page itself is the region.
func FindScrollRegion(doc Document, host Element) Region {
	var body Element
	if doc != nil {
		body = doc.Body()
	}

	node := host
	for node != nil {
		if body != nil && node == body {
			break
		}
		if IsScrollable(node) {
			return Region{doc: doc, el: node}
		}
		parent, ok := node.Parent()
		if !ok {
			break
		}
		node = parent
	}
	return Region{doc: doc}
}

func (r Region) IsPage() bool {
	return r.el == nil
}

// Element returns the backing element, nil for the page region.
func (r Region) Element() Element {
	return r.el
}

func (r Region) Width() float64 {
	if r.el != nil {
		return r.el.OffsetWidth()
	}
	if r.doc == nil {
		return 0
	}
	return r.doc.InnerWidth()
}

func (r Region) Height() float64 {
	if r.el != nil {
		return r.el.OffsetHeight()
	}
	if r.doc == nil {
		return 0
	}
	return r.doc.ProbeFixedHeight()
}

// ScrollOffset returns the current vertical scroll offset. A scrollable
// element that has not scrolled yet reports 0 rather than its static
// offset.
func (r Region) ScrollOffset() float64 {
	if r.el == nil {
		if r.doc == nil {
			return 0
		}
		return r.doc.ScrollY()
	}
	st := r.el.ScrollTop()
	if st == 0 {
		return 0
	}
	return r.el.OffsetTop() + st
}

// ScrollEvents returns the notification source for scrolling of this
// region, nil when the backing element emits none.
func (r Region) ScrollEvents() events.Source {
	if r.el == nil {
		if r.doc == nil {
			return nil
		}
		return r.doc.ScrollEvents()
	}
	if n, ok := r.el.(ScrollNotifier); ok {
		return n.ScrollEvents()
	}
	return nil
}
