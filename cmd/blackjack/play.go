package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs the terminal client
type PlayCmd struct {
	Local bool   `kong:"help='Shuffle in process instead of using the configured deck source'"`
	Seed  *int64 `kong:"help='Deterministic shuffle seed for local shoes (optional)'"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	// The terminal belongs to the game, so logs go to a file.
	logFile, err := shared.OpenLogFile(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	logger, err := newLogger(cfg, logFile)
	if err != nil {
		return err
	}
	if !cfg.ColorEnabled() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	src := newCardSource(cfg, logger, resolveSeed(c.Seed), c.Local)
	ctrl := round.NewController(src, logger, round.WithDeckCount(cfg.Deck.DeckCount))

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	logger.Info("Starting terminal client", "source", cfg.Deck.Source, "local", c.Local)
	return tui.Run(ctx, ctrl, logger)
}
