package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "vizkit",
	Short: "vizkit inspects the ports and properties of running tasks",
	Long: `vizkit polls task ports and shows their samples as trees.
Scalar leaves can be edited and written back to the task in one commit.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default $VIZKIT_CONFIG)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("demo", false, "Add a simulated task named 'demo'")
}

func appOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	demo, _ := cmd.Flags().GetBool("demo")
	return cli.Options{ConfigPath: configPath, Debug: debug, Demo: demo}
}
