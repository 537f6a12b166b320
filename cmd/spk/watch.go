package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/spk/internal/compiler"
	"github.com/dshills/spk/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		bindings    string
		destination string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile whenever the bindings script changes",
		Long: `Compiles once, then again after every change to the bindings script
until interrupted. Failed passes are reported and leave the previous key map
in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.compiler()
			opts := a.compileOptions(bindings, destination)
			source, _ := c.Resolve(opts)

			pass := func(ctx context.Context) error {
				_, err := c.Compile(ctx, opts)
				if err != nil {
					fmt.Fprintln(a.stderr, userMessage(err))
					return err
				}
				fmt.Fprintln(a.stdout, compiler.MsgUpdated)
				return nil
			}

			w, err := watch.New(source, watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			_ = pass(cmd.Context())
			return w.Run(cmd.Context(), pass)
		},
	}

	cmd.Flags().StringVarP(&bindings, "bindings", "b", "", "Bindings script (overrides config)")
	cmd.Flags().StringVarP(&destination, "destination", "o", "", "Key map destination (overrides config)")

	return cmd
}
