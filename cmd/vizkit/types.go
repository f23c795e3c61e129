package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vizkit/internal/cli"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the known type definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.NewApp(appOptions(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		kit := app.Codec.Typekit()
		for _, name := range kit.Names() {
			def, _ := kit.Lookup(name)
			switch {
			case def.Scalar != "":
				fmt.Printf("%-24s %s (%s)\n", name, def.Kind, def.Scalar)
			default:
				fmt.Printf("%-24s %s\n", name, def.Kind)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
