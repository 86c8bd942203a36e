// codeweave chunks source code into semantic units, classifies them and
// serves the results over MCP or the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/codeweave/cmd/codeweave/cmd"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetVersion(version, buildTime)
	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
