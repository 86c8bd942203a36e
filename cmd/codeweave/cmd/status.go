package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codeweave/internal/storage"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <dir>",
		Short: "Show indexing status and classification statistics for dir",
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

			out := cmd.OutOrStdout()
			project, err := a.Storage.GetProject(cmd.Context(), root)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(out, "%s is not indexed\n", root)
				return nil
			}
			if err != nil {
				return err
			}

			status, err := a.Storage.GetStatus(cmd.Context(), project.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, status)
			}

			fmt.Fprintf(out, "%s (last indexed %s)\n", project.RootPath, project.LastIndexedAt.Format(time.RFC3339))
			tw := newTable(out)
			fmt.Fprintf(tw, "  files\t%d (%d failed)\n", status.FilesCount, status.FailedFiles)
			fmt.Fprintf(tw, "  chunks\t%d (%d high confidence)\n", status.ChunksCount, status.HighConfidence)
			fmt.Fprintf(tw, "  avg confidence\t%.3f\n", status.AverageConfidence)
			fmt.Fprintf(tw, "  index size\t%.2f MB\n", status.IndexSizeMB)
			fmt.Fprintf(tw, "  schema\t%s (%s)\n", status.SchemaVersion, status.BuildMode)
			_ = tw.Flush()

			formatCounts(out, "languages", status.LanguageCounts)
			formatCounts(out, "categories", status.CategoryCounts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}
