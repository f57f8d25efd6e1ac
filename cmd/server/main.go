package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/accountability/internal/logging"
	"github.com/dmitrijs2005/accountability/internal/server"
	"github.com/dmitrijs2005/accountability/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		os.Exit(1)
	}
}
