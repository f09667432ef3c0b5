package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pagechat/internal/version"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
	url        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pagechat",
		Short: "Chat with the contents of a web page",
		Long: `pagechat fetches one web page, keeps the text inside the configured CSS
selectors, splits it into overlapping chunks and indexes their embeddings in
memory. Questions are answered by a chat model that is only allowed to use
the passages retrieved from that page.

Configuration is read from --config (YAML); a missing file means defaults.
CHAT_MODEL, EMBEDDING_MODEL, PAGECHAT_URL, OPENAI_API_KEY, OPENAI_BASE_URL
and OLLAMA_HOST override the file, and a .env file is loaded first.`,
		Version:      version.Full(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "pagechat.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.url, "url", "", "page to ingest (overrides source.url)")

	chatCmd := newChatCmd(opts)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(newAskCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	// With no subcommand, chat.
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
	rootCmd.RunE = chatCmd.RunE

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
