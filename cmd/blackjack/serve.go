package main

import (
	"os"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/shoe"
)

// ServeCmd runs the HTTP server
type ServeCmd struct {
	Addr  string        `kong:"default='',help='Listen address, overrides the configuration'"`
	Seed  *int64        `kong:"help='Deterministic shuffle seed (optional)'"`
	Sweep time.Duration `kong:"default='1h',help='How often expired shoes are dropped'"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	seed := resolveSeed(c.Seed)
	logger.Info("Using shuffle seed", "seed", seed)

	store := shoe.NewStore(cfg.ShoeTTL(), quartz.NewReal(), logger)
	opts := []server.Option{
		server.WithSeed(seed),
		server.WithDeckCount(cfg.Deck.DeckCount),
		server.WithSweepInterval(c.Sweep),
	}
	// Tables use the server's own shoes unless a remote deck service is configured.
	if cfg.Deck.Source == config.SourceRemote {
		opts = append(opts, server.WithCardSource(newCardSource(cfg, logger, seed, false)))
	}
	s := server.NewServer(store, logger, opts...)

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger.Info("Configured server",
		"address", addr,
		"deck_source", cfg.Deck.Source,
		"deck_count", cfg.Deck.DeckCount,
		"shoe_ttl", cfg.ShoeTTL())

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	return s.Run(ctx, addr)
}
