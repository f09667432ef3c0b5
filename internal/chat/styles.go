package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const headerWidth = 32

type styles struct {
	aiHeader   lipgloss.Style
	toolHeader lipgloss.Style
	toolBody   lipgloss.Style
	errorLine  lipgloss.Style
	rule       lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		aiHeader: r.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true),
		toolHeader: r.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true),
		toolBody: r.NewStyle().
			Foreground(lipgloss.Color("245")),
		errorLine: r.NewStyle().
			Foreground(lipgloss.Color("196")),
		rule: r.NewStyle().
			Foreground(lipgloss.Color("238")),
	}
}

// header renders a centred role title between rules.
func (s styles) header(title lipgloss.Style, text string) string {
	pad := max(2, (headerWidth-len(text)-2)/2)
	rule := s.rule.Render(strings.Repeat("=", pad))
	return rule + " " + title.Render(text) + " " + rule
}
