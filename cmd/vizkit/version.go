package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vizkit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vizkit version %s\n", strings.TrimSpace(vizkit.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
