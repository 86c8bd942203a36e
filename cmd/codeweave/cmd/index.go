package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codeweave/internal/indexer"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		force         bool
		includeVendor bool
		skipTests     bool
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Chunk, classify and store every supported file under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absDir(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			config := a.IndexConfig()
			config.ForceReindex = force
			if cmd.Flags().Changed("include-vendor") {
				config.IncludeVendor = includeVendor
			}
			if skipTests {
				config.IncludeTests = false
			}
			if workers > 0 {
				config.Workers = workers
			}

			stats, err := a.IndexProject(cmd.Context(), root, config)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), root, stats)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-index all files ignoring content hashes")
	cmd.Flags().BoolVar(&includeVendor, "include-vendor", false, "index vendor/ directories")
	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "do not index test files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel chunking workers (default from config)")
	return cmd
}

func printStats(w io.Writer, root string, stats *indexer.Statistics) {
	fmt.Fprintf(w, "Indexed %s in %v\n", root, stats.Duration.Round(time.Millisecond))
	tw := newTable(w)
	fmt.Fprintf(tw, "  files indexed\t%d\n", stats.FilesIndexed)
	fmt.Fprintf(tw, "  files skipped\t%d\n", stats.FilesSkipped)
	fmt.Fprintf(tw, "  files failed\t%d\n", stats.FilesFailed)
	fmt.Fprintf(tw, "  files removed\t%d\n", stats.FilesRemoved)
	fmt.Fprintf(tw, "  chunks created\t%d\n", stats.ChunksCreated)
	fmt.Fprintf(tw, "  chunks filtered\t%d\n", stats.ChunksFiltered)
	fmt.Fprintf(tw, "  high confidence\t%d\n", stats.HighConfidence)
	_ = tw.Flush()

	for _, msg := range stats.ErrorSummary(10) {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
	if n := len(stats.ErrorMessages); n > 10 {
		fmt.Fprintf(w, "  ... and %d more\n", n-10)
	}
}
