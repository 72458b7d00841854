// Package config loads runtime settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/eval"
	"github.com/hailam/tetrisplay/internal/storage"
)

// Config holds the settings shared by the binaries.
type Config struct {
	Addr        string // TETRIS_ADDR
	DataDir     string // TETRIS_DATA_DIR, empty means the per-user default
	Workers     int    // TETRIS_WORKERS, 0 = one per CPU
	Preset      string // TETRIS_PRESET
	WeightsFile string // TETRIS_WEIGHTS, a weights.json applied over the preset
	CacheMB     int    // TETRIS_CACHE_MB, per worker
	LogLevel    string // LOG_LEVEL
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        getEnv("TETRIS_ADDR", ":8080"),
		DataDir:     getEnv("TETRIS_DATA_DIR", ""),
		Preset:      getEnv("TETRIS_PRESET", "default"),
		WeightsFile: getEnv("TETRIS_WEIGHTS", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Workers, err = getInt("TETRIS_WORKERS", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheMB, err = getInt("TETRIS_CACHE_MB", 4); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 0 || cfg.CacheMB < 0 {
		return Config{}, fmt.Errorf("config: TETRIS_WORKERS and TETRIS_CACHE_MB must not be negative")
	}
	return cfg, nil
}

// ApplyLogLevel sets zerolog's global level. Unknown levels are ignored.
func (c Config) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

// ConsoleLogging switches the global logger to human-readable output on
// stderr, for the command-line tools.
func ConsoleLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// Weights resolves the configured preset and weights file.
func (c Config) Weights() (eval.Weights, error) {
	w, err := eval.Preset(c.Preset)
	if err != nil {
		return eval.Weights{}, fmt.Errorf("config: %w", err)
	}
	if c.WeightsFile == "" {
		return w, nil
	}
	data, err := os.ReadFile(c.WeightsFile)
	if err != nil {
		return eval.Weights{}, fmt.Errorf("config: read weights: %w", err)
	}
	w, err = eval.ParseWeightsOver(w, data)
	if err != nil {
		return eval.Weights{}, fmt.Errorf("config: %s: %w", c.WeightsFile, err)
	}
	return w, nil
}

// ResolveDataDir returns DataDir, or the per-user data directory.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return storage.GetDataDir()
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}
