// Package scenario describes a scroll timeline: where the page is scrolled
// to at each moment of the rendered video, and when the viewport resizes.
package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/fadescroll/internal/geometry"
)

const Version = "1.0"

const (
	EasingLinear    = "linear"
	EasingEaseInOut = "ease-in-out"
)

var ErrInvalid = errors.New("invalid scenario")

// Scenario is a complete scroll timeline for one video.
type Scenario struct {
	Version   string     `yaml:"version"`
	Duration  float64    `yaml:"duration"` // seconds
	Keyframes []Keyframe `yaml:"keyframes"`
	Resizes   []Resize   `yaml:"resizes,omitempty"`
}

// Keyframe pins the scroll offset at a point in time. Easing shapes the
// segment that ends at this keyframe.
type Keyframe struct {
	Time   float64 `yaml:"time"`
	Scroll float64 `yaml:"scroll"`
	Easing string  `yaml:"easing,omitempty"`
}

// Resize changes the viewport at Time, e.g. a device rotation.
type Resize struct {
	Time   float64 `yaml:"time"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Validate checks ordering and values. Keyframes and resizes must be
// sorted by time.
func (s *Scenario) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalid)
	}
	if s.Duration <= 0 || math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("%w: duration %v", ErrInvalid, s.Duration)
	}
	if len(s.Keyframes) == 0 {
		return fmt.Errorf("%w: no keyframes", ErrInvalid)
	}

	prev := math.Inf(-1)
	for i, kf := range s.Keyframes {
		if kf.Time < 0 || math.IsNaN(kf.Time) {
			return fmt.Errorf("%w: keyframe %d at %v", ErrInvalid, i, kf.Time)
		}
		if kf.Time < prev {
			return fmt.Errorf("%w: keyframe %d at %.3fs is before %.3fs", ErrInvalid, i, kf.Time, prev)
		}
		if math.IsNaN(kf.Scroll) || math.IsInf(kf.Scroll, 0) {
			return fmt.Errorf("%w: keyframe %d scroll %v", ErrInvalid, i, kf.Scroll)
		}
		switch kf.Easing {
		case "", EasingLinear, EasingEaseInOut:
		default:
			return fmt.Errorf("%w: keyframe %d easing %q", ErrInvalid, i, kf.Easing)
		}
		prev = kf.Time
	}

	prev = math.Inf(-1)
	for i, r := range s.Resizes {
		if r.Time < prev {
			return fmt.Errorf("%w: resize %d at %.3fs is before %.3fs", ErrInvalid, i, r.Time, prev)
		}
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("%w: resize %d to %vx%v", ErrInvalid, i, r.Width, r.Height)
		}
		prev = r.Time
	}
	return nil
}

// Frames returns the number of frames the timeline spans at fps.
func (s *Scenario) Frames(fps int) int {
	if fps <= 0 || s.Duration <= 0 {
		return 0
	}
	n := int(math.Round(s.Duration * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// Scale stretches the timeline to a new duration, e.g. to match an audio
// track.
func (s *Scenario) Scale(duration float64) {
	if s.Duration <= 0 || duration <= 0 {
		return
	}
	k := duration / s.Duration
	for i := range s.Keyframes {
		s.Keyframes[i].Time *= k
	}
	for i := range s.Resizes {
		s.Resizes[i].Time *= k
	}
	s.Duration = duration
}

// GenerateSweep builds the default timeline: a hold on the first image,
// an eased scroll through the whole runway of the host element, and a hold
// on the last image.
//
// vp is the geometry the host will have; hostOffset is the host's offset
// from the top of its scroll region.
func GenerateSweep(vp geometry.ViewportState, hostOffset, duration float64) (*Scenario, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration %v", ErrInvalid, duration)
	}
	if vp.Empty() {
		return nil, fmt.Errorf("%w: empty viewport", ErrInvalid)
	}

	// 1s intro + 1s outro, как у режиссёра слайдов
	hold := 1.0
	if duration < 4 {
		hold = duration / 4
	}

	runway := math.Max(vp.ContainerExtent-vp.SurfaceHeight, 0)
	start := math.Max(hostOffset, 0)
	end := start + runway

	return &Scenario{
		Version:  Version,
		Duration: duration,
		Keyframes: []Keyframe{
			{Time: 0, Scroll: 0},
			{Time: hold, Scroll: start, Easing: EasingEaseInOut},
			{Time: duration - hold, Scroll: end, Easing: EasingEaseInOut},
			{Time: duration, Scroll: end, Easing: EasingLinear},
		},
	}, nil
}
