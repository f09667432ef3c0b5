package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagechat/internal/tools"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Ingest the page and print the passages retrieved for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if k <= 0 {
				k = a.cfg.Retrieval.K
			}
			results, err := a.service.Search(ctx, strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tools.FormatResults(results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of passages (default retrieval.k)")
	return cmd
}
