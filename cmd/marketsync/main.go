// Command marketsync keeps the marketplace product catalog in sync with the
// market repositories on GitHub.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/marketsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// homeEnvVar overrides the config and data directory.
const homeEnvVar = "MARKETSYNC_HOME"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	defer logger.Sync()

	a, err := newApp(ctx, os.Getenv(homeEnvVar))
	if err != nil {
		return err
	}
	defer a.Close()

	cli.SetVersion(version)
	cli.Configure(a.Services())
	cli.SetServeConfig(a.ServeConfig())

	return cli.Execute(ctx)
}
