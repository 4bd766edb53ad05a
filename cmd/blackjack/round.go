package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/blackjack/blackjack"
	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/round"
)

// RoundCmd plays a single automatic round
type RoundCmd struct {
	StandOn int    `kong:"default='17',help='The player hits while below this total'"`
	Local   bool   `kong:"help='Shuffle in process instead of using the configured deck source'"`
	Seed    *int64 `kong:"help='Deterministic shuffle seed for local shoes (optional)'"`
	JSON    bool   `kong:"name='json',help='Print the round as JSON'"`
}

func (c *RoundCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	src := newCardSource(cfg, logger, resolveSeed(c.Seed), c.Local)
	ctrl := round.NewController(src, logger, round.WithDeckCount(cfg.Deck.DeckCount))
	ctx := shared.SetupSignalHandlerWithLogger(logger)

	if err := ctrl.Deal(ctx); err != nil {
		return err
	}
	for ctrl.Status() == blackjack.InProgress {
		if ctrl.PlayerTotal() < c.StandOn {
			err = ctrl.Hit(ctx)
		} else {
			err = ctrl.Stand(ctx)
		}
		if err != nil {
			return err
		}
	}

	p := ctrl.Snapshot().PresentDefault()
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	printPresentation(os.Stdout, p)
	return nil
}

func printPresentation(w io.Writer, p round.Presentation) {
	line := func(label, text, total string) {
		parts := []string{fmt.Sprintf("%-7s %s", label+":", text)}
		if total != "" {
			parts = append(parts, total)
		}
		_, _ = fmt.Fprintln(w, strings.Join(parts, "  "))
	}
	line("Dealer", p.DealerText, p.DealerTotal)
	line("Player", p.PlayerText, p.PlayerTotal)
	if p.Message != "" {
		_, _ = fmt.Fprintln(w, p.Message)
	}
}
