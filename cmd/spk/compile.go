package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/spk/internal/compiler"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		bindings    string
		destination string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the bindings script into a key map",
		Long: `Runs the bindings script and replaces the key map with the records it
declared. The key map is left untouched when the script fails or declares
no bindings.

Paths may use $packages, $platform, $home, $user, ${env:NAME} and custom
variables from the [vars] table of the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.compileOptions(bindings, destination)
			if dryRun {
				opts.Output = a.stdout
			}

			if _, err := a.compiler().Compile(cmd.Context(), opts); err != nil {
				return err
			}
			if !dryRun {
				fmt.Fprintln(a.stdout, compiler.MsgUpdated)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bindings, "bindings", "b", "", "Bindings script (overrides config)")
	cmd.Flags().StringVarP(&destination, "destination", "o", "", "Key map destination (overrides config)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the key map instead of writing it")

	return cmd
}
