// Command tetrisplay-pick decides one move: it reads a game state and a
// weight vector, prints every candidate and writes the inputs of the best
// one to selected_actions.json.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hailam/tetrisplay/internal/board"
	"github.com/hailam/tetrisplay/internal/config"
	"github.com/hailam/tetrisplay/internal/engine"
	"github.com/hailam/tetrisplay/internal/eval"
)

var (
	inputPath   = flag.String("input", "input.json", "game state to decide for")
	weightsPath = flag.String("weights", "weights.json", "weights; missing fields keep the preset's values")
	outPath     = flag.String("out", "selected_actions.json", "where to write the chosen inputs")
	preset      = flag.String("preset", "", "base preset (default from TETRIS_PRESET)")
	quiet       = flag.Bool("quiet", false, "print only the best move")
)

func main() {
	flag.Parse()
	config.ConsoleLogging()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	cfg.ApplyLogLevel()
	if *preset != "" {
		cfg.Preset = *preset
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("pick")
	}
}

func loadWeights(cfg config.Config) (eval.Weights, error) {
	w, err := cfg.Weights()
	if err != nil {
		return eval.Weights{}, err
	}
	data, err := os.ReadFile(*weightsPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", *weightsPath).Msg("no weights file, using preset")
		return w, nil
	}
	if err != nil {
		return eval.Weights{}, err
	}
	return eval.ParseWeightsOver(w, data)
}

func run(cfg config.Config) error {
	f, err := os.Open(*inputPath)
	if err != nil {
		return err
	}
	state, err := board.ReadState(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", *inputPath, err)
	}

	w, err := loadWeights(cfg)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(w, engine.Options{Workers: cfg.Workers, CacheMB: cfg.CacheMB})
	best, all, err := eng.Search(context.Background(), state.Board, state.Current)
	if err != nil {
		return err
	}

	if !*quiet {
		outputs := make([]engine.Decision, len(all))
		for i, c := range all {
			fmt.Print(c.Board.String())
			fmt.Printf("x: %d, y: %d, rotation: %d, tspin: %v, lines cleared: %d, cleared rows: %v\n\n",
				c.Placement.Location.X, c.Placement.Location.Y, c.Placement.Location.Rot,
				c.Placement.Location.Tspin, len(c.Lock.ClearedLines), c.Lock.ClearedLines)
			outputs[i] = engine.NewDecision(c)
		}
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}

	d := engine.NewDecision(best)
	fmt.Println("\nBEST MOVE:")
	fmt.Print(best.Board.String())
	combo := "none"
	if d.Combo != nil {
		combo = fmt.Sprint(*d.Combo)
	}
	fmt.Printf("score: %d, lines cleared: %d, placement kind: %s (b2b: %v, combo: %s, used hold: %v)\n",
		d.Total, d.LinesCleared, d.PlacementKind, d.B2B, combo, d.UsedHold)
	fmt.Printf("inputs for best move: %v\n", d.Inputs)

	data, err := json.MarshalIndent(d.Inputs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(*outPath, data, 0o644)
}
