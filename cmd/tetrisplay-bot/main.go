// Command tetrisplay-bot speaks the line protocol on stdin and stdout.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/config"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/protocol"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func main() {
	flag.Parse()
	config.ConsoleLogging()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	cfg.ApplyLogLevel()

	// Profiling via flag or CPUPROFILE
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("create cpu profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("start cpu profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu profiling enabled")
	}

	w, err := cfg.Weights()
	if err != nil {
		log.Fatal().Err(err).Msg("weights")
	}
	eng := engine.NewEngine(w, engine.Options{Workers: cfg.Workers, CacheMB: cfg.CacheMB})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := protocol.New(eng, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("protocol")
	}
}
