package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd plays automatic rounds against in-process shoes
type SimulateCmd struct {
	Rounds  int    `kong:"default='10000',help='Number of rounds to play'"`
	Workers int    `kong:"default='0',help='Parallel workers (defaults to the number of CPUs)'"`
	StandOn int    `kong:"default='17',help='The player hits while below this total'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	JSON    bool   `kong:"name='json',help='Print the report as JSON'"`
	Out     string `kong:"type='path',help='Also write the JSON report to this file'"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	workers := c.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	seed := resolveSeed(c.Seed)
	logger.Info("Starting simulation", "rounds", c.Rounds, "workers", workers, "stand_on", c.StandOn, "seed", seed)

	sim := simulator.New(simulator.Config{
		Rounds:    c.Rounds,
		Workers:   workers,
		StandOn:   c.StandOn,
		DeckCount: cfg.Deck.DeckCount,
		Seed:      seed,
		Timeout:   cfg.RequestTimeout(),
		Logger:    logger,
	})

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	stats, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	report := stats.Report()
	if c.Out != "" {
		if err := fileutil.WriteJSONAtomic(c.Out, report, 0o644); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Out)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Print(stats.Summary())
	return nil
}
