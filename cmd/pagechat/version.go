package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagechat/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			buildInfo := version.GetBuildInfo()

			fmt.Fprintf(out, "pagechat %s\n", version.Full())
			if buildInfo.GitCommit != "unknown" {
				fmt.Fprintf(out, "Git commit: %s\n", buildInfo.GitCommit)
			}
			if buildInfo.GitDirty {
				fmt.Fprintf(out, "Git status: dirty (uncommitted changes)\n")
			}
			if buildInfo.BuildDate != "unknown" {
				fmt.Fprintf(out, "Build date: %s\n", buildInfo.BuildDate)
			}
			fmt.Fprintf(out, "Go version: %s\n", buildInfo.GoVersion)
			return nil
		},
	}
}
