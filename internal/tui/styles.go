package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the TUI styling definitions
type Styles struct {
	// Chat bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	Divider         lipgloss.Style

	// Tool activity
	ToolRunning  lipgloss.Style
	ToolComplete lipgloss.Style
	ToolError    lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusReady lipgloss.Style
	StatusBusy  lipgloss.Style

	InputStyle lipgloss.Style

	// Thinking indicator (KITT scanner)
	ThinkingBar   lipgloss.Style
	ThinkingTrack lipgloss.Style

	Muted  lipgloss.Style
	Accent lipgloss.Style
}

// DefaultStyles creates the default style set using the default renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles creates the style set using the given renderer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		UserBubble: r.NewStyle().
			Foreground(lipgloss.Color("75")).
			Padding(0, 1).
			MarginLeft(4),
		AssistantBubble: r.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1).
			MarginRight(4),
		SystemBubble: r.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true).
			Padding(0, 1),
		UserLabel: r.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true),
		AssistantLabel: r.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true),
		Divider: r.NewStyle().
			Foreground(lipgloss.Color("238")),

		ToolRunning: r.NewStyle().
			Foreground(lipgloss.Color("81")),
		ToolComplete: r.NewStyle().
			Foreground(lipgloss.Color("76")),
		ToolError: r.NewStyle().
			Foreground(lipgloss.Color("196")),

		StatusBar: r.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		StatusReady: r.NewStyle().
			Foreground(lipgloss.Color("76")).
			Bold(true),
		StatusBusy: r.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),

		InputStyle: r.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")),

		ThinkingBar: r.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true),
		ThinkingTrack: r.NewStyle().
			Foreground(lipgloss.Color("238")),

		Muted: r.NewStyle().
			Foreground(lipgloss.Color("245")),
		Accent: r.NewStyle().
			Foreground(lipgloss.Color("213")),
	}
}
