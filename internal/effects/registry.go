package effects

import (
	"errors"
	"fmt"
	"strings"
)

const (
	AxisVertical   = "vertical"
	AxisHorizontal = "horizontal"
)

var ErrUnknownAxis = errors.New("unknown blend axis")

// New creates the blend effect for an axis name.
func New(axis string) (Effect, error) {
	switch strings.ToLower(strings.TrimSpace(axis)) {
	case AxisVertical, "reveal", "":
		return VerticalWipe{}, nil
	case AxisHorizontal, "slide":
		return HorizontalSlide{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAxis, axis)
	}
}

// Axes lists the accepted axis names.
func Axes() []string {
	return []string{AxisVertical, AxisHorizontal}
}
