package color

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "no color wins", env: map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1", "TERM": "xterm"}, want: false},
		{name: "force", env: map[string]string{"FORCE_COLOR": "1", "TERM": "dumb"}, want: true},
		{name: "ci", env: map[string]string{"CI": "true", "TERM": "xterm-256color"}, want: false},
		{name: "truecolor", env: map[string]string{"COLORTERM": "truecolor"}, want: true},
		{name: "xterm", env: map[string]string{"TERM": "xterm-256color"}, want: true},
		{name: "dumb", env: map[string]string{"TERM": "dumb"}, want: false},
		{name: "empty", env: map[string]string{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "FORCE_COLOR", "CI", "COLORTERM", "TERM"} {
				t.Setenv(k, tt.env[k])
			}
			assert.Equal(t, tt.want, Supported())
		})
	}
}

func TestPalette_Disabled(t *testing.T) {
	p := NewPalette(false)
	assert.False(t, p.Enabled())
	assert.Equal(t, "key", p.Key.Sprint("key"))
	assert.NotContains(t, p.Rule(), "\x1b[")

	box := p.Box("Setup")
	assert.Contains(t, box, "Setup")
	assert.True(t, strings.HasPrefix(box, "╔"))
}

func TestPalette_Enabled(t *testing.T) {
	p := NewPalette(true)
	assert.Contains(t, p.Success.Sprint("ok"), "\x1b[32m")
}
