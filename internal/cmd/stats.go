package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, cleanup, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := a.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)
			fmt.Fprintf(out, "%s %s\n", p.header.Sprint("Index:"), cfg.DBPath)
			fmt.Fprintf(out, "%s | %s | %s\n",
				p.files.Sprintf("Files: %s", humanize.Comma(stats.Files)),
				p.dirs.Sprintf("Dirs: %s", humanize.Comma(stats.Dirs)),
				p.total.Sprintf("Total Size: %s", formatSize(stats.TotalSize)),
			)
			return nil
		},
	}
}
