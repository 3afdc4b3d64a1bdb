package tracker

import (
	"github.com/ivlev/fadescroll/internal/geometry"
	"github.com/ivlev/fadescroll/internal/layout"
)

// ScrollSample is the host element position relative to the scroll
// region origin. Top turns negative once the host has scrolled past.
type ScrollSample struct {
	Top    float64
	Bottom float64
}

// Sample measures the host against the region's current scroll offset.
func Sample(host layout.Element, region layout.Region, vp geometry.ViewportState) ScrollSample {
	var offsetTop float64
	if host != nil {
		offsetTop = host.OffsetTop()
	}
	top := offsetTop - region.ScrollOffset()
	return ScrollSample{
		Top:    top,
		Bottom: top + vp.ContainerExtent,
	}
}

// Distance is how far the host has scrolled past the region origin.
func (s ScrollSample) Distance() float64 {
	if s.Top < 0 {
		return -s.Top
	}
	return s.Top
}

// Straddles reports whether the host covers the whole surface height.
func (s ScrollSample) Straddles(surfaceHeight float64) bool {
	return s.Top <= 0 && s.Bottom >= surfaceHeight
}
