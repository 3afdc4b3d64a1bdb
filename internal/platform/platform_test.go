package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"unset", nil, true},
		{"enabled", map[string]string{EnvSticky: "1"}, true},
		{"zero", map[string]string{EnvSticky: "0"}, false},
		{"off", map[string]string{EnvSticky: " OFF "}, false},
		{"false", map[string]string{EnvSticky: "false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := Detect(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			assert.Equal(t, tt.want, caps.Sticky)
		})
	}

	assert.True(t, Detect(nil).Sticky)
}

func TestCurrentIsStable(t *testing.T) {
	assert.Equal(t, Current(), Current())
}

func TestResolvePolicy(t *testing.T) {
	assert.True(t, Resolve("on").Sticky)
	assert.False(t, Resolve("off").Sticky)
	assert.Equal(t, Current(), Resolve("auto"))
	assert.Equal(t, Current(), Resolve(""))
}
