// Package platform holds the capability flags the fade view consults once
// at construction.
package platform

import (
	"os"
	"strings"
	"sync"
)

// EnvSticky overrides sticky positioning detection.
const EnvSticky = "FADESCROLL_STICKY"

// Capabilities is an immutable snapshot of what the host platform supports.
type Capabilities struct {
	// Sticky reports whether the drawing surface can be pinned while its
	// container scrolls past.
	Sticky bool
}

var current = sync.OnceValue(func() Capabilities {
	return Detect(os.LookupEnv)
})

// Current returns the process-wide snapshot, computed on first use.
func Current() Capabilities {
	return current()
}

// Detect builds a snapshot from an environment lookup function.
func Detect(lookup func(string) (string, bool)) Capabilities {
	caps := Capabilities{Sticky: true}
	if lookup == nil {
		return caps
	}
	if v, ok := lookup(EnvSticky); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "off", "no":
			caps.Sticky = false
		}
	}
	return caps
}

// Resolve applies a pinning policy ("auto", "on", "off") on top of the
// detected snapshot.
func Resolve(policy string) Capabilities {
	switch strings.ToLower(policy) {
	case "on", "true", "yes":
		return Capabilities{Sticky: true}
	case "off", "false", "no":
		return Capabilities{Sticky: false}
	default:
		return Current()
	}
}
