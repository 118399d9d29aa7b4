package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pop/internal/search"
)

type searchFlags struct {
	name          string
	regex         string
	ext           string
	size          string
	lmd           string
	kind          string
	path          string
	sort          string
	reverse       bool
	limit         int
	caseSensitive bool
}

func newSearchCommand(opts *globalOptions) *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query the index",
		Long: `Query the index. Every filter given must match; no filters lists everything
up to the result cap.

Size filters take an optional leading > or < and a KB, MB or GB suffix
(1024-based). Malformed size or date filters are ignored.

Examples:
  # Large log files, biggest first
  pop search --ext log --size ">100MB" --sort size --reverse

  # Names containing "report" changed since 2024
  pop search --name report --lmd 2024-01-01

  # Go test files anywhere below ./src
  pop search --path ./src --regex '_test\.go$'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Substring the entry name must contain")
	cmd.Flags().StringVar(&flags.regex, "regex", "", "Regular expression the entry name must match")
	cmd.Flags().StringVar(&flags.ext, "ext", "", "Extension filter, e.g. txt")
	cmd.Flags().StringVar(&flags.size, "size", "", "Size filter, e.g. >10MB, <500KB, 1024")
	cmd.Flags().StringVar(&flags.lmd, "lmd", "", "Only entries modified after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.kind, "type", "", "Entry type: file or dir")
	cmd.Flags().StringVar(&flags.path, "path", "", "Only entries whose path starts with this prefix")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "Sort by name, size, lmd or ext")
	cmd.Flags().BoolVar(&flags.reverse, "reverse", false, "Reverse the sort order")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, fmt.Sprintf("Maximum number of results (default %d)", search.DefaultLimit))
	cmd.Flags().BoolVar(&flags.caseSensitive, "case-sensitive", false, "Match names case-sensitively")

	return cmd
}

func (f *searchFlags) criteria() (search.Criteria, error) {
	kind, ok := search.ParseKind(f.kind)
	if !ok {
		return search.Criteria{}, fmt.Errorf("invalid --type %q (want file or dir)", f.kind)
	}
	sortKey, ok := search.ParseSort(f.sort)
	if !ok {
		return search.Criteria{}, fmt.Errorf("invalid --sort %q (want name, size, lmd or ext)", f.sort)
	}
	if f.limit < 0 {
		return search.Criteria{}, fmt.Errorf("invalid --limit %d", f.limit)
	}

	return search.Criteria{
		Name:          f.name,
		Regex:         f.regex,
		CaseSensitive: f.caseSensitive,
		Extension:     f.ext,
		PathPrefix:    f.path,
		Kind:          kind,
		Size:          f.size,
		ModifiedAfter: f.lmd,
		Sort:          sortKey,
		Reverse:       f.reverse,
		Limit:         f.limit,
	}, nil
}

func runSearch(cmd *cobra.Command, opts *globalOptions, flags *searchFlags) error {
	criteria, err := flags.criteria()
	if err != nil {
		return err
	}

	a, _, cleanup, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	records, err := a.Search(cmd.Context(), criteria)
	if err != nil {
		return err
	}

	return renderResults(cmd.OutOrStdout(), records, flags.name, time.Since(start))
}
