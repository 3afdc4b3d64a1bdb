package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/fadescroll/internal/layout"
)

func TestResolve(t *testing.T) {
	page := layout.NewPage(800, 600)
	region := layout.PageRegion(page)

	tests := []struct {
		name    string
		length  int
		pinning bool
		want    ViewportState
	}{
		{"pinned", 3, true, ViewportState{800, 600, 1800}},
		{"not pinned", 3, false, ViewportState{800, 600, 600}},
		{"empty pinned", 0, true, ViewportState{800, 600, 0}},
		{"negative length", -2, true, ViewportState{800, 600, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(region, tt.length, tt.pinning))
		})
	}
}

func TestResolveElementRegion(t *testing.T) {
	page := layout.NewPage(1920, 1080)
	box := page.BodyBox().Append(layout.NewBox("scroller", 0, 640, 360)).SetStyle("overflow", "auto")

	vp := Resolve(layout.ElementRegion(page, box), 4, true)
	assert.Equal(t, ViewportState{640, 360, 1440}, vp)

	w, h := vp.PixelSize()
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)
}

func TestResolveFollowsResize(t *testing.T) {
	page := layout.NewPage(800, 600)
	region := layout.PageRegion(page)
	assert.Equal(t, 1800.0, Resolve(region, 3, true).ContainerExtent)

	page.Resize(400, 300)
	assert.Equal(t, ViewportState{400, 300, 900}, Resolve(region, 3, true))
}

func TestResolveZeroGeometry(t *testing.T) {
	vp := Resolve(layout.PageRegion(nil), 3, true)
	assert.True(t, vp.Empty())
	assert.Zero(t, vp.ContainerExtent)

	box := layout.NewBox("nan", 0, math.NaN(), -5)
	vp = Resolve(layout.ElementRegion(nil, box), 2, true)
	assert.Equal(t, ViewportState{}, vp)
}
