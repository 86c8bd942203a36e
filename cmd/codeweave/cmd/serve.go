package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/mcp"
	"github.com/dshills/codeweave/internal/storage"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(a)
			if err != nil {
				_ = a.Close()
				return err
			}

			opts.logger.Info("codeweave starting",
				zap.String("version", version),
				zap.String("build_mode", storage.BuildMode),
				zap.String("driver", storage.DriverName))

			// Serve closes the app on return
			err = server.Serve(cmd.Context())
			opts.logger.Info("server stopped")
			return err
		},
	}
}
