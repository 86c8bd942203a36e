package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codeweave/internal/searcher"
	"github.com/dshills/codeweave/internal/storage"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit   int
		filters storage.SearchFilters
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search <dir> <query>...",
		Short: "Keyword search over the indexed chunks of dir",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absDir(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			project, err := a.Storage.GetProject(cmd.Context(), root)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%s is not indexed; run: codeweave index %s", root, args[0])
			}
			if err != nil {
				return err
			}

			resp, err := a.Search(cmd.Context(), project.ID, query, limit, &filters)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp.Results)
			}
			return formatResults(cmd.OutOrStdout(), resp.Results)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	cmd.Flags().StringVarP(&filters.Language, "language", "l", "", "only chunks in this language")
	cmd.Flags().StringVar(&filters.Category, "category", "", "only chunks in this category (e.g. DEFINITION_CALLABLE)")
	cmd.Flags().StringVar(&filters.FilePattern, "files", "", "glob over relative file paths (e.g. 'internal/*')")
	cmd.Flags().Float64Var(&filters.MinConfidence, "min-confidence", 0, "minimum classification confidence")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}
