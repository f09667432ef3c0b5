// Package chat runs the line-oriented conversation loop.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"pagechat/internal/agent"
	"pagechat/internal/ai"
)

const (
	// Prompt precedes every line of user input.
	Prompt = "You: "
	// Farewell is printed when the user leaves.
	Farewell = "Adios..."
	// DefaultGreeting opens a session.
	DefaultGreeting = "hey, how may I help you?"

	unavailable = "service unavailable, please try again."
)

var exitTokens = map[string]bool{"stop": true, "exit": true, "quit": true}

// IsExitToken reports whether input asks to end the session.
func IsExitToken(input string) bool {
	return exitTokens[strings.ToLower(strings.TrimSpace(input))]
}

// Sender runs one conversational turn.
type Sender interface {
	Send(ctx context.Context, text string) (*agent.Reply, error)
}

// Option configures a Session.
type Option func(*Session)

// WithGreeting replaces the opening line.
func WithGreeting(greeting string) Option {
	return func(s *Session) { s.greeting = greeting }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithToolTurns controls whether tool turns are printed.
func WithToolTurns(show bool) Option {
	return func(s *Session) { s.showTools = show }
}

// Session reads user lines from in and writes the conversation to out.
type Session struct {
	sender    Sender
	in        io.Reader
	out       io.Writer
	greeting  string
	showTools bool
	logger    *log.Logger
	styles    styles
}

// NewSession creates a session.
func NewSession(sender Sender, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		sender:    sender,
		in:        in,
		out:       out,
		greeting:  DefaultGreeting,
		showTools: true,
		styles:    newStyles(lipgloss.NewRenderer(out)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Run loops until an exit token, end of input or ctx cancellation. A failed
// turn is reported to the user and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s.printf("Bot: %s\n", s.greeting)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printf("%s", Prompt)
		if !scanner.Scan() {
			s.printf("\n")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if IsExitToken(line) {
			s.printf("%s\n", Farewell)
			return nil
		}

		reply, err := s.sender.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("turn failed", "err", err)
			s.printf("%s\n", s.styles.errorLine.Render("Bot: "+unavailable))
			continue
		}
		s.render(reply)
	}
}

func (s *Session) render(reply *agent.Reply) {
	for _, turn := range reply.Turns {
		switch turn.Role {
		case ai.RoleUser:
			continue
		case ai.RoleTool:
			if !s.showTools {
				continue
			}
			s.printf("%s\n%s\n", s.styles.header(s.styles.toolHeader, "Tool Message"), s.styles.toolBody.Render(turn.Content))
		case ai.RoleAssistant:
			s.printf("%s\n", s.styles.header(s.styles.aiHeader, "AI Message"))
			for _, call := range turn.ToolCalls {
				s.printf("%s\n", s.styles.toolBody.Render(fmt.Sprintf("Tool call: %s %v", call.Name, call.Args)))
			}
			if turn.Content != "" {
				s.printf("%s\n", turn.Content)
			}
		}
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
