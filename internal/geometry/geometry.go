package geometry

import (
	"math"

	"github.com/ivlev/fadescroll/internal/layout"
)

// ViewportState is the drawing surface size and the scroll runway
// attributed to the host element.
type ViewportState struct {
	SurfaceWidth    float64
	SurfaceHeight   float64
	ContainerExtent float64
}

// Resolve measures the scroll region. With pinning, every image gets one
// surface height of runway; without it the container is a single unit and
// there is nothing to scroll through.
func Resolve(region layout.Region, sequenceLength int, pinning bool) ViewportState {
	w := sanitize(region.Width())
	h := sanitize(region.Height())

	if sequenceLength < 0 {
		sequenceLength = 0
	}

	extent := h
	if pinning {
		extent = h * float64(sequenceLength)
	}

	return ViewportState{
		SurfaceWidth:    w,
		SurfaceHeight:   h,
		ContainerExtent: extent,
	}
}

// Empty reports zero geometry, e.g. a detached element.
func (v ViewportState) Empty() bool {
	return v.SurfaceWidth <= 0 || v.SurfaceHeight <= 0
}

// PixelSize returns the surface size rounded to whole pixels.
func (v ViewportState) PixelSize() (int, int) {
	return int(math.Round(v.SurfaceWidth)), int(math.Round(v.SurfaceHeight))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
