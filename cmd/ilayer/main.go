// Package main is the entry point for the ilayer command line tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/cli"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := wire(ctx)
	if err != nil {
		// The CLI has not parsed --verbose yet, so always print this one.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer app.close()

	cli.SetVersion(version)
	cli.SetServices(app.services)

	if err := cli.Execute(app.ctx); err != nil {
		logger.Debug("command failed: %v", err)
		return 1
	}
	return 0
}
