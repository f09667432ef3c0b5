package tui

import (
	"fmt"
	"strings"
	"time"

	"pagechat/internal/agent"
)

// StatusBarModel manages the bottom status bar
type StatusBarModel struct {
	Source           string
	Model            string
	Chunks           int
	State            agent.State
	LastResponseTime time.Duration
	TotalTokens      int
	Width            int
	Styles           Styles
}

// NewStatusBarModel creates a new status bar
func NewStatusBarModel(styles Styles) StatusBarModel {
	return StatusBarModel{Styles: styles}
}

// View renders the status bar
func (s StatusBarModel) View() string {
	var parts []string

	if s.State == agent.AwaitingUser {
		parts = append(parts, s.Styles.StatusReady.Render("* ready"))
	} else {
		parts = append(parts, s.Styles.StatusBusy.Render("~ "+strings.ReplaceAll(s.State.String(), "_", " ")))
	}

	if s.Source != "" {
		src := strings.TrimPrefix(strings.TrimPrefix(s.Source, "https://"), "http://")
		if len(src) > 30 {
			src = src[:27] + "..."
		}
		parts = append(parts, s.Styles.Muted.Render(src))
	}
	if s.Chunks > 0 {
		parts = append(parts, s.Styles.Muted.Render(fmt.Sprintf("%d chunks", s.Chunks)))
	}
	if s.Model != "" {
		parts = append(parts, s.Styles.Accent.Render(s.Model))
	}
	if s.LastResponseTime > 0 {
		parts = append(parts, s.Styles.Muted.Render(formatResponseTime(s.LastResponseTime)))
	}
	if s.TotalTokens > 0 {
		parts = append(parts, s.Styles.Muted.Render(fmt.Sprintf("%d tokens", s.TotalTokens)))
	}

	content := strings.Join(parts, "  |  ")
	return s.Styles.StatusBar.Width(s.Width).Render(content)
}

func formatResponseTime(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
