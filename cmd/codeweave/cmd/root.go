package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/app"
	"github.com/dshills/codeweave/internal/config"
	"github.com/dshills/codeweave/internal/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build information shown by the version command.
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// rootOptions holds global flags and the state built from them before
// any subcommand runs.
type rootOptions struct {
	configFile string
	verbose    bool

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "codeweave",
		Short: "codeweave - semantic code chunking and classification",
		Long: "Split source files into semantic chunks, classify syntax nodes into\n" +
			"categories with confidence scores, and index repositories for search.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./codeweave.yaml or ~/.config/codeweave/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newChunkCmd(opts),
		newClassifyCmd(opts),
		newIndexCmd(opts),
		newSearchCmd(opts),
		newStatusCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// setup loads .env, the config file and builds the logger.
func (o *rootOptions) setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	if o.configFile != "" {
		if _, statErr := os.Stat(o.configFile); statErr != nil {
			return fmt.Errorf("config file: %w", statErr)
		}
		o.cfg, err = config.Load(o.configFile)
		o.cfgPath = o.configFile
	} else {
		o.cfg, o.cfgPath, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	o.logger, err = logging.New(o.cfg.Logging, o.verbose)
	if err != nil {
		return err
	}
	if o.cfgPath != "" {
		o.logger.Debug("loaded config", zap.String("path", o.cfgPath))
	}
	return nil
}

// openApp builds the full pipeline including the database.
func (o *rootOptions) openApp() (*app.App, error) {
	a, err := app.New(o.cfg, o.logger)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return a, nil
}

// absDir resolves a directory argument to an absolute path.
func absDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
