package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Polls the configured watches in the background and exposes trees and edits as a JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		app, err := cli.NewApp(appOptions(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, app, addr); err != nil && !cli.IsInterrupted(err) {
			return err
		}
		app.Logger.Info("server stopped gracefully", "signal", sigCtx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default from config, :8080)")
}
