package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/deckapi"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/shoe"
)

// Globals are flags shared by every command
type Globals struct {
	Config    string `kong:"short='c',default='blackjack.hcl',help='HCL configuration file'"`
	EnvFile   string `kong:"default='.env',help='Environment file loaded before reading BLACKJACK_* variables'"`
	LogLevel  string `kong:"default='',help='Log level (debug, info, warn, error), overrides the configuration'"`
	LogFormat string `kong:"default='',help='Log format (text, json), overrides the configuration'"`
}

// load reads the configuration: file, then .env and environment, then flags.
func (g *Globals) load() (*config.Config, error) {
	if err := config.LoadEnvFile(g.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.UI.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.UI.LogFormat = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	return shared.SetupLogger(cfg.UI.LogLevel, cfg.UI.LogFormat, w)
}

// newCardSource builds the configured card source. A local source, or
// forceLocal, shuffles in process from seed.
func newCardSource(cfg *config.Config, logger *log.Logger, seed int64, forceLocal bool) round.CardSource {
	if forceLocal || cfg.Deck.Source == config.SourceLocal {
		store := shoe.NewStore(cfg.ShoeTTL(), quartz.NewReal(), logger)
		logger.Debug("Using in-process shoes", "seed", seed)
		return shoe.NewLocalSource(store, seed)
	}
	logger.Debug("Using deck service", "url", cfg.Deck.APIURL, "timeout", cfg.RequestTimeout())
	return deckapi.NewClient(cfg.Deck.APIURL, logger, deckapi.WithTimeout(cfg.RequestTimeout()))
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}
