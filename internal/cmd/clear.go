package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cleanup, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			p := newPalette(out)
			fmt.Fprintln(out, p.warning.Sprint("Clearing index..."))

			if err := a.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Index cleared successfully.")
			return nil
		},
	}
}
