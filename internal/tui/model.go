package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pagechat/internal/agent"
	"pagechat/internal/chat"
	"pagechat/internal/tools"
	"pagechat/vecgo"
)

const unavailable = "service unavailable, please try again."

// ModelConfig holds the configuration for creating a new TUI model
type ModelConfig struct {
	Sender   chat.Sender
	Events   *Events // optional; carries agent state and tool activity
	Greeting string
	Source   string
	Model    string
	Chunks   int
	// Context is the parent of every turn. Defaults to context.Background.
	Context context.Context
	// Renderer is the Lip Gloss renderer to use for styling. If nil, the
	// default renderer (local terminal) is used.
	Renderer *lipgloss.Renderer
}

// Events forwards agent activity into the running program.
type Events struct {
	ch chan tea.Msg
}

// NewEvents creates an event feed.
func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 128)}
}

// StateHook is an agent.WithStateHook callback.
func (e *Events) StateHook(s agent.State) {
	e.send(StateMsg{State: s})
}

// ToolHook is a tools.ToolEventCallback.
func (e *Events) ToolHook(ev tools.ToolEventInfo) {
	e.send(ToolEventMsg{ToolEventInfo: ev})
}

// send drops the event rather than stall a turn when nobody is reading.
func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

func (e *Events) listen() tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg { return <-e.ch }
}

// Model is the root BubbleTea model
type Model struct {
	config ModelConfig
	styles Styles

	chat      ChatViewModel
	statusBar StatusBarModel
	input     textarea.Model

	width     int
	height    int
	busy      bool
	quitting  bool
	turnStart time.Time
}

// NewModel creates the TUI model.
func NewModel(config ModelConfig) Model {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Greeting == "" {
		config.Greeting = chat.DefaultGreeting
	}

	styles := DefaultStyles()
	if config.Renderer != nil {
		styles = NewStyles(config.Renderer)
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about the page (stop, exit or quit to leave)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	status := NewStatusBarModel(styles)
	status.Source = config.Source
	status.Model = config.Model
	status.Chunks = config.Chunks

	m := Model{
		config:    config,
		styles:    styles,
		chat:      NewChatViewModel(styles),
		statusBar: status,
		input:     ta,
	}
	m.chat.AddMessage("assistant", config.Greeting)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.config.Events.listen())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if m.quitting {
			return m, tea.Quit
		}
		if handled {
			return m, cmd
		}

	case TurnDoneMsg:
		m.busy = false
		m.statusBar.State = agent.AwaitingUser
		m.statusBar.LastResponseTime = time.Since(m.turnStart)
		used := m.chat.Pending
		m.chat.SetThinking(false)
		if msg.Err != nil {
			m.chat.AddMessage("system", unavailable)
			break
		}
		m.statusBar.TotalTokens += msg.Reply.Usage.TotalTokens
		m.chat.add(ChatBubble{
			Role:    "assistant",
			Content: msg.Reply.Content,
			Tools:   used,
			Sources: sourcesOf(msg.Reply.Retrieved),
		})

	case ToolEventMsg:
		info := ToolActivityInfo{Name: msg.ToolName, Status: msg.EventType, Error: msg.Error, Duration: msg.Duration}
		if info.Status == "start" {
			info.Status = "running"
		}
		m.chat.TrackTool(info)
		return m, m.config.Events.listen()

	case StateMsg:
		if m.busy {
			m.statusBar.State = msg.State
		}
		return m, m.config.Events.listen()

	case ThinkingTickMsg:
		if m.busy {
			m.chat.ThinkingTick()
			cmds = append(cmds, thinkingTickCmd())
		}
		return m, tea.Batch(cmds...)
	}

	var vpCmd tea.Cmd
	m.chat.Viewport, vpCmd = m.chat.Viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	var tiCmd tea.Cmd
	m.input, tiCmd = m.input.Update(msg)
	cmds = append(cmds, tiCmd)

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
// Returns (cmd, handled) where handled=true prevents the textarea from also processing the key.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit, true

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return nil, true
		}
		if chat.IsExitToken(text) {
			m.quitting = true
			return tea.Quit, true
		}
		if m.busy {
			return nil, true
		}

		m.input.Reset()
		m.chat.AddMessage("user", text)
		m.busy = true
		m.turnStart = time.Now()
		m.chat.SetThinking(true)
		return tea.Batch(m.runTurn(text), thinkingTickCmd()), true
	}
	return nil, false
}

// runTurn sends text to the agent off the UI goroutine.
func (m *Model) runTurn(text string) tea.Cmd {
	sender, parent, events := m.config.Sender, m.config.Context, m.config.Events
	return func() tea.Msg {
		ctx := parent
		if events != nil {
			ctx = tools.WithToolEventCallback(ctx, events.ToolHook)
		}
		reply, err := sender.Send(ctx, text)
		return TurnDoneMsg{Reply: reply, Err: err}
	}
}

func (m *Model) updateLayout() {
	statusBarHeight := 1
	inputHeight := 4 // textarea + border

	chatHeight := max(m.height-statusBarHeight-inputHeight, 5)
	chatWidth := max(m.width, 20)

	m.statusBar.Width = m.width
	m.input.SetWidth(chatWidth - 2)
	m.chat.SetSize(chatWidth, chatHeight)
}

// View renders the entire TUI
func (m Model) View() string {
	if m.quitting {
		return chat.Farewell + "\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.chat.View(),
		m.styles.InputStyle.Width(m.width).Render(m.input.View()),
		m.statusBar.View(),
	)
}

// thinkingTickCmd returns a command that fires a ThinkingTickMsg after a short delay.
func thinkingTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return ThinkingTickMsg{}
	})
}

// sourcesOf lists the distinct chunks behind an answer in retrieval order.
func sourcesOf(results []vecgo.Result) []string {
	seen := make(map[string]bool, len(results))
	var out []string
	for _, r := range results {
		label := r.ID
		if idx, ok := r.Metadata["chunk_index"]; ok {
			label = fmt.Sprintf("chunk %s", idx)
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
