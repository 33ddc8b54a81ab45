package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/akave-ai/logwatch/internal/app"
	"github.com/akave-ai/logwatch/internal/config"
	"github.com/akave-ai/logwatch/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.New(cfg.Observability)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("start")
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		lg.Error().Err(err).Msg("server exited")
		a.Close()
		os.Exit(1)
	}
	lg.Info().Msg("shut down")
}
