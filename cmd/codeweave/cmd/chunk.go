package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codeweave/internal/app"
	"github.com/dshills/codeweave/internal/indexer"
	"github.com/dshills/codeweave/internal/storage"
	"github.com/dshills/codeweave/pkg/types"
)

func newChunkCmd(opts *rootOptions) *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Split a file into classified semantic chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewWithoutStorage(opts.cfg, opts.logger)
			if err != nil {
				return err
			}

			path := args[0]
			var chunks []*types.Chunk
			if lang == "" {
				lang = a.Selector.DetectLanguage(path)
				chunks, err = a.Selector.ChunkFile(cmd.Context(), path, nil)
			} else {
				lang = strings.ToLower(lang)
				var content []byte
				content, err = os.ReadFile(path)
				if err == nil {
					chunks, err = a.Selector.ChunkAs(cmd.Context(), content, path, lang, nil)
				}
			}
			if err != nil {
				return fmt.Errorf("chunk %s: %w", path, err)
			}

			rows := make([]*storage.Chunk, 0, len(chunks))
			for _, c := range chunks {
				rows = append(rows, indexer.LabelChunk(a.Classifier, c))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, rows)
			}
			chunker := "-"
			if len(rows) > 0 {
				chunker = rows[0].ChunkerType
			}
			fmt.Fprintf(out, "%s: %d chunks (language %s, chunker %s)\n", path, len(rows), orDash(lang), chunker)
			return formatChunks(out, rows)
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "language override (default: detect from extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print chunks as JSON")
	return cmd
}
