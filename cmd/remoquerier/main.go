package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"remoquerier/internal/app"
	"remoquerier/internal/config"
	"syscall"

	"github.com/charmbracelet/log"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, config.ErrUsage):
		os.Exit(2)
	case err != nil:
		log.Fatal(err)
	}

	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		stop()
		log.Fatal(err)
	}
}
