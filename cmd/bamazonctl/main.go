package main

import (
	"context"
	"os"

	"bamazon/config"
	"bamazon/internal/app"
	"bamazon/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := config.NewLogger("warn")
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	opener := func(ctx context.Context) (app.Store, func() error, error) {
		cfg := config.LoadConfig(logger)
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil && lvl > logrus.InfoLevel {
			logger.SetLevel(lvl)
		}
		return app.OpenStore(ctx, cfg, logger)
	}

	if err := cli.NewRootCommand(opener, logger).Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
