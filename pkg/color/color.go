// Package color decides whether terminal output should be coloured and holds
// the styles shared by the command line tools.
package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	fcolor "github.com/fatih/color"
)

// Supported checks whether the terminal supports colour output.
func Supported() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if os.Getenv("CI") != "" {
		return false
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return true
	}

	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	return strings.Contains(term, "color") ||
		strings.Contains(term, "ansi") ||
		strings.Contains(term, "xterm") ||
		strings.Contains(term, "screen")
}

// Palette is a set of styles that all turn off together.
type Palette struct {
	enabled bool

	Heading *fcolor.Color
	Key     *fcolor.Color
	Success *fcolor.Color
	Warning *fcolor.Color
	Muted   *fcolor.Color
}

func NewPalette(enabled bool) *Palette {
	p := &Palette{
		enabled: enabled,
		Heading: fcolor.New(fcolor.FgCyan, fcolor.Bold),
		Key:     fcolor.New(fcolor.FgHiYellow),
		Success: fcolor.New(fcolor.FgGreen),
		Warning: fcolor.New(fcolor.FgHiRed, fcolor.Bold),
		Muted:   fcolor.New(fcolor.FgHiBlack),
	}
	for _, c := range []*fcolor.Color{p.Heading, p.Key, p.Success, p.Warning, p.Muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Palette) Enabled() bool {
	return p.enabled
}

// Box draws title inside a double-line frame.
func (p *Palette) Box(title string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		Padding(0, 5)
	if p.enabled {
		style = style.
			Bold(true).
			BorderForeground(lipgloss.Color("6"))
	}
	return style.Render(title)
}

// Rule is a horizontal separator.
func (p *Palette) Rule() string {
	return p.Muted.Sprint(strings.Repeat("═", 59))
}
