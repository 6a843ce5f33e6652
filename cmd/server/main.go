package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/engine"
	"fenrir/internal/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	eng := engine.New(cfg.Pairs...)
	gw := gateway.New(cfg.Addr, cfg.Workers, eng)

	if err := gw.Run(ctx); err != nil {
		log.Error().Err(err).Msg("gateway exited with error")
		os.Exit(1)
	}
}
