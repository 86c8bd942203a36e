package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Index dir, then keep the index current as files change",
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
			if !skipInitial {
				stats, err := a.IndexProject(cmd.Context(), root, config)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), root, stats)
			}

			w, err := watcher.New(root, a.Indexer, watcher.Options{
				Debounce: a.Config.Watcher.GetDebounce(),
				Filter:   config,
				OnFlush: func(indexed, removed []string) {
					a.Searcher.InvalidateCache()
					opts.logger.Info("index updated",
						zap.Strings("indexed", indexed),
						zap.Strings("removed", removed))
				},
			}, opts.logger.Named("watcher"))
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "skip-initial", false, "do not index before watching (project must already be indexed)")
	return cmd
}
