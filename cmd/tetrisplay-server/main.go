// Command tetrisplay-server serves decisions over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/config"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/server"
	"github.com/hailam/tetrisplay/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	cfg.ApplyLogLevel()

	w, err := cfg.Weights()
	if err != nil {
		log.Fatal().Err(err).Msg("weights")
	}

	var store *storage.Storage
	dir, err := cfg.ResolveDataDir()
	if err == nil {
		store, err = storage.NewStorage(dir)
	}
	if err != nil {
		log.Warn().Err(err).Msg("storage disabled")
		store = nil
	} else {
		defer store.Close()
	}

	eng := engine.NewEngine(w, engine.Options{Workers: cfg.Workers, CacheMB: cfg.CacheMB})
	srv := server.New(eng, store, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("preset", cfg.Preset).Str("data", dir).Msg("starting tetrisplay-server")
	if err := srv.Start(ctx, cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
