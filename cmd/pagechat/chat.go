package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pagechat/internal/agent"
	"pagechat/internal/chat"
	"pagechat/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var fullScreen bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ingest the page and start a conversation (default)",
		Long: `Ingest the configured page, then answer questions about it until you type
stop, exit or quit (any case).

Key bindings in --tui mode:
  Enter           Send message
  PageUp/PageDown Scroll chat history
  Ctrl+C          Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if fullScreen {
				return runTUI(ctx, a)
			}

			ag, err := a.newAgent()
			if err != nil {
				return err
			}
			session := chat.NewSession(ag, cmd.InOrStdin(), cmd.OutOrStdout(),
				chat.WithGreeting(a.cfg.Agent.Greeting),
				chat.WithLogger(a.logger),
				chat.WithToolTurns(opts.verbose),
			)
			if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullScreen, "tui", false, "use the full-screen interface")
	return cmd
}

func runTUI(ctx context.Context, a *app) error {
	events := tui.NewEvents()
	ag, err := a.newAgent(agent.WithStateHook(events.StateHook))
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	a.logger.SetOutput(io.Discard)

	err = tui.Run(ctx, tui.ModelConfig{
		Sender:   ag,
		Events:   events,
		Greeting: a.cfg.Agent.Greeting,
		Source:   a.cfg.Source.URL,
		Model:    a.cfg.Chat.Provider + ":" + a.cfg.Chat.Model,
		Chunks:   a.service.Len(),
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ingest the page and answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ag, err := a.newAgent()
			if err != nil {
				return err
			}
			reply, err := ag.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
}
