package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:8080", cfg.ServerAddress())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 14*24*time.Hour, cfg.ShoeTTL())
	assert.True(t, cfg.ColorEnabled())
}

func TestParse(t *testing.T) {
	src := `
deck {
  source     = "local"
  deck_count = 2
}

server {
  port     = 9090
  shoe_ttl = 600
}

ui {
  log_level  = "debug"
  log_format = "json"
  no_color   = true
}
`
	cfg, err := Parse([]byte(src), "blackjack.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceLocal, cfg.Deck.Source)
	assert.Equal(t, 2, cfg.Deck.DeckCount)
	assert.Equal(t, 10, cfg.Deck.RequestTimeout, "defaults fill unset attributes")
	assert.Equal(t, "https://deckofcardsapi.com", cfg.Deck.APIURL)
	assert.Equal(t, "localhost:9090", cfg.ServerAddress())
	assert.Equal(t, 10*time.Minute, cfg.ShoeTTL())
	assert.Equal(t, "debug", cfg.UI.LogLevel)
	assert.Equal(t, "json", cfg.UI.LogFormat)
	assert.Equal(t, "blackjack.log", cfg.UI.LogFile)
	assert.False(t, cfg.ColorEnabled())
}

func TestParse_PartialFile(t *testing.T) {
	cfg, err := Parse([]byte(`deck { api_url = "http://localhost:8080" }`), "partial.hcl")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Deck.APIURL)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().UI, cfg.UI)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`deck {`), "broken.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`deck { deck_count = "many" }`), "typed.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`table "main" {}`), "unknown.hcl")
	assert.Error(t, err)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`ui { log_level = "warn" }`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.UI.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Deck.Source = "carrier-pigeon" }},
		{"remote without url", func(c *Config) { c.Deck.APIURL = "" }},
		{"no decks", func(c *Config) { c.Deck.DeckCount = 0 }},
		{"too many decks", func(c *Config) { c.Deck.DeckCount = 21 }},
		{"zero timeout", func(c *Config) { c.Deck.RequestTimeout = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero ttl", func(c *Config) { c.Server.ShoeTTL = 0 }},
		{"bad log level", func(c *Config) { c.UI.LogLevel = "chatty" }},
		{"bad log format", func(c *Config) { c.UI.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	local := Default()
	local.Deck.Source = SourceLocal
	local.Deck.APIURL = ""
	assert.NoError(t, local.Validate(), "local source needs no url")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDeckSource: "local",
		EnvDeckAPI:    "http://127.0.0.1:9000",
		EnvDeckCount:  "4",
		EnvLogLevel:   "error",
		EnvAddr:       "0.0.0.0:9999",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, SourceLocal, cfg.Deck.Source)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Deck.APIURL)
	assert.Equal(t, 4, cfg.Deck.DeckCount)
	assert.Equal(t, "error", cfg.UI.LogLevel)
	assert.Equal(t, "0.0.0.0:9999", cfg.ServerAddress())

	bad := Default()
	assert.Error(t, bad.ApplyEnv(func(k string) string {
		if k == EnvDeckCount {
			return "six"
		}
		return ""
	}))
	assert.Error(t, Default().ApplyEnv(func(k string) string {
		if k == EnvAddr {
			return "no-port"
		}
		return ""
	}))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLACKJACK_DECK_COUNT=3\n"), 0o644))
	t.Setenv(EnvDeckCount, "")
	require.NoError(t, os.Unsetenv(EnvDeckCount))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "3", os.Getenv(EnvDeckCount))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(nil))
	assert.Equal(t, 3, cfg.Deck.DeckCount)

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "blackjack.example.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default(), cfg)
}
