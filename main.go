// TetrisPlay - watch the engine play, built with Ebitengine
package main

import (
	"flag"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/config"
	"github.com/hailam/tetrisplay/internal/game"
	"github.com/hailam/tetrisplay/internal/storage"
	"github.com/hailam/tetrisplay/internal/ui"
)

var (
	seed    = flag.Uint64("seed", 0, "randomizer seed, 0 = time based")
	speed   = flag.Int("speed", 4, "pieces per second")
	profile = flag.String("profile", "", "saved weight profile to play with")
	mode    = flag.String("mode", "endless", "endless, sprint (40 lines) or blitz (3 minutes)")
)

func main() {
	flag.Parse()
	config.ConsoleLogging()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	cfg.ApplyLogLevel()

	m, err := game.ParseMode(*mode)
	if err != nil {
		log.Fatal().Err(err).Msg("mode")
	}

	opts := ui.Options{
		Mode:    m,
		Seed:    *seed,
		Preset:  cfg.Preset,
		Workers: cfg.Workers,
		CacheMB: cfg.CacheMB,
		Speed:   *speed,
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	if cfg.WeightsFile != "" {
		w, err := cfg.Weights()
		if err != nil {
			log.Fatal().Err(err).Msg("weights")
		}
		opts.Weights = &w
	}

	if dir, err := cfg.ResolveDataDir(); err != nil {
		log.Warn().Err(err).Msg("no data directory, stats disabled")
	} else if store, err := storage.NewStorage(dir); err != nil {
		log.Warn().Err(err).Msg("storage disabled")
	} else {
		defer store.Close()
		opts.Store = store
		if *profile != "" {
			p, err := store.LoadProfile(*profile)
			if err != nil {
				log.Fatal().Err(err).Msg("profile")
			}
			opts.Weights = &p.Weights
		}
	}

	ebiten.SetWindowSize(ui.ScreenWidth, ui.ScreenHeight)
	ebiten.SetWindowTitle("TetrisPlay")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(ui.NewGame(opts)); err != nil {
		log.Fatal().Err(err).Msg("run")
	}
}
