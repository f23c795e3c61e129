package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the watched trees to AI agents as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("listen")

		// Logs must not corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)

		app, err := cli.NewApp(appOptions(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := cli.ServeMCP(sigCtx, app, transport, addr); err != nil && !cli.IsInterrupted(err) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().StringP("listen", "l", "", "Address to listen on (only for SSE)")
}
