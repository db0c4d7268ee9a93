package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Brand   lipgloss.Style
	Method  lipgloss.Style
	URL     lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Summary lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Brand: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1020")).
			Background(lipgloss.Color("#FBC859")).
			Bold(true).
			Padding(0, 1),
		Method:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		URL:     lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E1FF")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B39")).Bold(true),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EAEAEA")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FBC859")),
		Summary: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3")).Bold(true),
	}
}

// ColorsSpec overrides foreground colours. Nil or blank fields keep the base
// colour.
type ColorsSpec struct {
	Accent  *string `toml:"accent" yaml:"accent"`
	Success *string `toml:"success" yaml:"success"`
	Error   *string `toml:"error" yaml:"error"`
	Warning *string `toml:"warning" yaml:"warning"`
	Muted   *string `toml:"muted" yaml:"muted"`
}

func ApplyColors(base Theme, spec ColorsSpec) Theme {
	out := base
	if c, ok := color(spec.Accent); ok {
		out.Method = out.Method.Foreground(c)
		out.Key = out.Key.Foreground(c)
	}
	if c, ok := color(spec.Success); ok {
		out.Success = out.Success.Foreground(c)
	}
	if c, ok := color(spec.Error); ok {
		out.Error = out.Error.Foreground(c)
	}
	if c, ok := color(spec.Warning); ok {
		out.Warning = out.Warning.Foreground(c)
	}
	if c, ok := color(spec.Muted); ok {
		out.Muted = out.Muted.Foreground(c)
	}
	return out
}

func color(value *string) (lipgloss.Color, bool) {
	if value == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", false
	}
	return lipgloss.Color(trimmed), true
}
