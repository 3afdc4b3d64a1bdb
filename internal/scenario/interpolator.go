package scenario

// ScrollAt returns the scroll offset at time t, interpolating between the
// surrounding keyframes. Before the first and after the last keyframe the
// offset is held.
func (s *Scenario) ScrollAt(t float64) float64 {
	kfs := s.Keyframes
	if len(kfs) == 0 {
		return 0
	}
	if t <= kfs[0].Time {
		return kfs[0].Scroll
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Scroll
	}

	// Ищем окружающие ключевые кадры
	var prev, next Keyframe
	for i := 0; i < len(kfs)-1; i++ {
		if t >= kfs[i].Time && t < kfs[i+1].Time {
			prev, next = kfs[i], kfs[i+1]
			break
		}
	}

	delta := next.Time - prev.Time
	if delta <= 0 {
		return next.Scroll
	}
	k := (t - prev.Time) / delta
	if next.Easing == EasingEaseInOut {
		k = easeInOutCubic(k)
	}
	return lerp(prev.Scroll, next.Scroll, k)
}

// ResizesBetween returns the resizes due in [from, to).
func (s *Scenario) ResizesBetween(from, to float64) []Resize {
	var out []Resize
	for _, r := range s.Resizes {
		if r.Time >= from && r.Time < to {
			out = append(out, r)
		}
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
