package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
)

// ChatBubble represents a single chat message
type ChatBubble struct {
	Role    string
	Content string
	Tools   []ToolActivityInfo
	Sources []string
}

// ChatViewModel manages the chat message viewport
type ChatViewModel struct {
	Messages      []ChatBubble
	Viewport      viewport.Model
	Width         int
	Height        int
	Thinking      bool
	Pending       []ToolActivityInfo // tool activity of the turn in flight
	Styles        Styles
	ThinkingFrame int
}

// NewChatViewModel creates a new chat view
func NewChatViewModel(styles Styles) ChatViewModel {
	vp := viewport.New(80, 20)
	vp.SetContent("")
	return ChatViewModel{Viewport: vp, Styles: styles}
}

// SetSize updates the viewport dimensions
func (c *ChatViewModel) SetSize(width, height int) {
	c.Width = width
	c.Height = height
	c.Viewport.Width = width
	c.Viewport.Height = height
	c.refreshContent()
}

// AddMessage adds a complete message to the chat
func (c *ChatViewModel) AddMessage(role, content string) {
	c.add(ChatBubble{Role: role, Content: content})
}

func (c *ChatViewModel) add(b ChatBubble) {
	c.Messages = append(c.Messages, b)
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// SetThinking toggles the thinking indicator. Stopping clears pending tool activity.
func (c *ChatViewModel) SetThinking(on bool) {
	c.Thinking = on
	c.ThinkingFrame = 0
	if !on {
		c.Pending = nil
	}
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// TrackTool records tool activity for the turn in flight.
func (c *ChatViewModel) TrackTool(info ToolActivityInfo) {
	c.Pending = updateToolList(c.Pending, info)
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// ThinkingTick advances the KITT scanner animation by one frame and refreshes.
func (c *ChatViewModel) ThinkingTick() {
	c.ThinkingFrame++
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// renderKITTBar renders a KITT-style bouncing scanner bar for the thinking indicator.
func (c *ChatViewModel) renderKITTBar() string {
	const trackWidth = 16
	const barWidth = 3

	maxPos := trackWidth - barWidth
	cycle := 2 * maxPos
	pos := c.ThinkingFrame % cycle
	if pos > maxPos {
		pos = cycle - pos
	}

	var styled strings.Builder
	styled.WriteString(c.Styles.Muted.Render("  reading the page  "))
	styled.WriteString(c.Styles.ThinkingTrack.Render("["))
	for i := 0; i < trackWidth; i++ {
		if i >= pos && i < pos+barWidth {
			styled.WriteString(c.Styles.ThinkingBar.Render("="))
		} else {
			styled.WriteString(c.Styles.ThinkingTrack.Render(" "))
		}
	}
	styled.WriteString(c.Styles.ThinkingTrack.Render("]"))
	return styled.String()
}

// refreshContent rebuilds the viewport content from messages
func (c *ChatViewModel) refreshContent() {
	var sb strings.Builder
	maxWidth := max(c.Width-6, 20)

	for i, msg := range c.Messages {
		if i > 0 {
			sb.WriteString(c.Styles.Divider.Render(strings.Repeat("─", maxWidth)))
			sb.WriteString("\n")
		}
		sb.WriteString(c.renderMessage(msg, maxWidth))
		sb.WriteString("\n")
	}

	if c.Thinking {
		for _, tool := range c.Pending {
			sb.WriteString(renderToolActivity(tool, c.Styles) + "\n")
		}
		sb.WriteString(c.renderKITTBar() + "\n")
	}

	c.Viewport.SetContent(sb.String())
}

// renderMessage renders a single chat bubble
func (c *ChatViewModel) renderMessage(msg ChatBubble, maxWidth int) string {
	var sb strings.Builder

	for _, tool := range msg.Tools {
		sb.WriteString(renderToolActivity(tool, c.Styles))
		sb.WriteString("\n")
	}

	switch msg.Role {
	case "user":
		sb.WriteString(c.Styles.UserLabel.Render("You") + "\n")
		sb.WriteString(c.Styles.UserBubble.Render(wrapText(msg.Content, maxWidth)))

	case "assistant":
		sb.WriteString(c.Styles.AssistantLabel.Render("Bot") + "\n")
		sb.WriteString(c.Styles.AssistantBubble.Render(wrapText(msg.Content, maxWidth)))
		if len(msg.Sources) > 0 {
			sb.WriteString("\n" + c.Styles.Muted.Render("  sources: "+strings.Join(msg.Sources, ", ")))
		}

	case "system":
		sb.WriteString(c.Styles.SystemBubble.Render(wrapText(msg.Content, maxWidth)))
	}

	return sb.String()
}

// View renders the chat viewport
func (c ChatViewModel) View() string {
	return c.Viewport.View()
}

// wrapText wraps text to fit within maxWidth runes
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if utf8.RuneCountInString(line) <= maxWidth {
			result.WriteString(line)
			continue
		}

		current, width := "", 0
		for _, word := range strings.Fields(line) {
			n := utf8.RuneCountInString(word)
			switch {
			case current == "":
				current, width = word, n
			case width+1+n <= maxWidth:
				current += " " + word
				width += 1 + n
			default:
				result.WriteString(current + "\n")
				current, width = word, n
			}
		}
		result.WriteString(current)
	}
	return result.String()
}

// renderToolActivity renders a tool activity indicator
func renderToolActivity(tool ToolActivityInfo, styles Styles) string {
	dur := ""
	if tool.Duration > 0 {
		dur = fmt.Sprintf(" (%.1fs)", tool.Duration.Seconds())
	}
	switch tool.Status {
	case "running":
		return styles.ToolRunning.Render(fmt.Sprintf("  > [%s] Running...", tool.Name))
	case "complete":
		return styles.ToolComplete.Render(fmt.Sprintf("  + [%s] Done%s", tool.Name, dur))
	case "error":
		return styles.ToolError.Render(fmt.Sprintf("  x [%s] Error%s: %s", tool.Name, dur, tool.Error))
	default:
		return styles.Muted.Render(fmt.Sprintf("  ? [%s] %s", tool.Name, tool.Status))
	}
}

// updateToolList updates or adds a tool to the activity list
func updateToolList(list []ToolActivityInfo, info ToolActivityInfo) []ToolActivityInfo {
	for i, t := range list {
		if t.Name == info.Name && t.Status == "running" {
			list[i] = info
			return list
		}
	}
	list = append(list, info)
	if len(list) > 10 {
		list = list[len(list)-10:]
	}
	return list
}
