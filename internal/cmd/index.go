package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pop/internal/config"
)

func newIndexCommand(opts *globalOptions) *cobra.Command {
	var reindex bool

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a directory tree",
		Long: `Walk a directory tree and record every file and directory in the index.

Entries already in the index are updated in place. Use --reindex to clear the
index before walking. Symbolic links are recorded but never followed, and
entries that cannot be read are skipped.

Records are committed in batches. An interrupted run leaves the entries of the
batches already committed; run the same command again to complete the index.

Examples:
  # Index the home directory
  pop index ~

  # Rebuild the index from scratch
  pop index /data --reindex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, opts, args[0], reindex)
		},
	}

	cmd.Flags().BoolVar(&reindex, "reindex", false, "Clear the index before walking")

	return cmd
}

func runIndex(cmd *cobra.Command, opts *globalOptions, raw string, reindex bool) error {
	root, err := config.NormalizeRoot(raw)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(root); err != nil {
		return fmt.Errorf("cannot index %s: %w", root, err)
	}

	a, _, cleanup, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	p := newPalette(out)

	fmt.Fprintf(out, "%s %s\n", p.action.Sprint("Indexing"), p.target.Sprint(root))
	start := time.Now()

	summary, err := a.Index(cmd.Context(), root, reindex)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Indexing completed in %s (%d entries, %d skipped)\n",
		p.success.Sprint("Success!"),
		p.count.Sprint(time.Since(start).Round(time.Millisecond)),
		summary.Entries,
		summary.Skipped,
	)
	return nil
}
