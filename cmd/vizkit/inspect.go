package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit/internal/cli"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [tree...]",
	Short: "Print the watched trees",
	Long:  `Polls the configured watches and prints them as trees, refreshing until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		markdown, _ := cmd.Flags().GetBool("markdown")
		all, _ := cmd.Flags().GetBool("all")

		app, err := cli.NewApp(appOptions(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Inspect(sigCtx, app, os.Stdout, cli.InspectOptions{
			Once:     once,
			Markdown: markdown,
			All:      all,
			Trees:    args,
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("once", false, "Print one snapshot and exit")
	inspectCmd.Flags().Bool("markdown", false, "Render snapshots as markdown")
	inspectCmd.Flags().BoolP("all", "a", false, "Expand every node")
}
