package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorDanger  = lipgloss.Color("#FF5555")
)

// Theme carries the renderer and the adaptive colors used by the select
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Selected  lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme builds the standard theme for r; nil uses the default renderer
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: string(ColorPrimary)},
		Secondary: lipgloss.AdaptiveColor{Light: "#5A6A94", Dark: string(ColorMuted)},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: string(ColorSubtext)},
		Selected:  lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: string(ColorSuccess)},
		Danger:    lipgloss.AdaptiveColor{Light: "#CF222E", Dark: string(ColorDanger)},
		Base:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: string(ColorText)}),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECT STYLES
// ══════════════════════════════════════════════════════════════════════════════

func (t Theme) inputBox(focused bool, width int) lipgloss.Style {
	border := t.Secondary
	if focused {
		border = t.Primary
	}
	s := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if width > 0 {
		s = s.Width(width)
	}
	return s
}

func (t Theme) placeholder() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true)
}

func (t Theme) value() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
}

func (t Theme) cursorRow() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
}

func (t Theme) checked() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Selected)
}

func (t Theme) bold() lipgloss.Style {
	return t.Renderer.NewStyle().Bold(true)
}

func (t Theme) muted() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true)
}

func (t Theme) errorText() lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(t.Danger)
}

// RenderDivider renders a horizontal divider line
func (t Theme) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return t.Renderer.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
