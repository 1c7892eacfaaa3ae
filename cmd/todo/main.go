// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/tasks"
)

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	factory := func(ctx context.Context, cfg *config.Config, logger logging.Logger) (service.Service, error) {
		svc, err := tasks.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	newLogger := func(cfg *config.Config, errOut io.Writer) (logging.Logger, io.Closer) {
		return logging.New(logging.Options{
			Stderr:  errOut,
			Debug:   cfg.Debug,
			File:    cfg.LogPath(),
			Journal: logging.UnderJournal(),
		})
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.WithLoggerFactory(newLogger))

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
