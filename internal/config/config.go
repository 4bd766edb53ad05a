package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/lox/blackjack/internal/deckapi"
)

// Card sources
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Environment variables that override the configuration file
const (
	EnvDeckSource = "BLACKJACK_DECK_SOURCE"
	EnvDeckAPI    = "BLACKJACK_DECK_API"
	EnvDeckCount  = "BLACKJACK_DECK_COUNT"
	EnvLogLevel   = "BLACKJACK_LOG_LEVEL"
	EnvAddr       = "BLACKJACK_ADDR"
)

// Config represents the complete configuration
type Config struct {
	Deck   *DeckSettings   `hcl:"deck,block"`
	Server *ServerSettings `hcl:"server,block"`
	UI     *UISettings     `hcl:"ui,block"`
}

// DeckSettings says where cards come from
type DeckSettings struct {
	Source         string `hcl:"source,optional"`
	APIURL         string `hcl:"api_url,optional"`
	DeckCount      int    `hcl:"deck_count,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"` // seconds
}

// ServerSettings configures the HTTP server
type ServerSettings struct {
	Address string `hcl:"address,optional"`
	Port    int    `hcl:"port,optional"`
	ShoeTTL int    `hcl:"shoe_ttl,optional"` // seconds
}

// UISettings configures logging and the terminal client
type UISettings struct {
	LogLevel  string `hcl:"log_level,optional"`
	LogFile   string `hcl:"log_file,optional"`
	LogFormat string `hcl:"log_format,optional"`
	NoColor   bool   `hcl:"no_color,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Deck: &DeckSettings{
			Source:         SourceRemote,
			APIURL:         deckapi.DefaultBaseURL,
			DeckCount:      6,
			RequestTimeout: 10,
		},
		Server: &ServerSettings{
			Address: "localhost",
			Port:    8080,
			ShoeTTL: 14 * 24 * 60 * 60,
		},
		UI: &UISettings{
			LogLevel:  "info",
			LogFile:   "blackjack.log",
			LogFormat: "text",
		},
	}
}

// Load reads the configuration file, falling back to defaults when it does not exist
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills in defaults for anything left out
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Deck == nil {
		c.Deck = defaults.Deck
	}
	if c.Deck.Source == "" {
		c.Deck.Source = defaults.Deck.Source
	}
	if c.Deck.APIURL == "" {
		c.Deck.APIURL = defaults.Deck.APIURL
	}
	if c.Deck.DeckCount == 0 {
		c.Deck.DeckCount = defaults.Deck.DeckCount
	}
	if c.Deck.RequestTimeout == 0 {
		c.Deck.RequestTimeout = defaults.Deck.RequestTimeout
	}

	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.ShoeTTL == 0 {
		c.Server.ShoeTTL = defaults.Server.ShoeTTL
	}

	if c.UI == nil {
		c.UI = defaults.UI
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
	if c.UI.LogFormat == "" {
		c.UI.LogFormat = defaults.UI.LogFormat
	}
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvDeckSource); v != "" {
		c.Deck.Source = v
	}
	if v := getenv(EnvDeckAPI); v != "" {
		c.Deck.APIURL = v
	}
	if v := getenv(EnvDeckCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvDeckCount, err)
		}
		c.Deck.DeckCount = n
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.UI.LogLevel = v
	}
	if v := getenv(EnvAddr); v != "" {
		host, port, err := splitHostPort(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvAddr, err)
		}
		c.Server.Address = host
		c.Server.Port = port
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Deck.Source {
	case SourceRemote:
		if c.Deck.APIURL == "" {
			return fmt.Errorf("deck api_url is required for the remote source")
		}
	case SourceLocal:
	default:
		return fmt.Errorf("invalid deck source: %s", c.Deck.Source)
	}

	if c.Deck.DeckCount < 1 || c.Deck.DeckCount > 20 {
		return fmt.Errorf("deck count must be between 1 and 20, got %d", c.Deck.DeckCount)
	}
	if c.Deck.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ShoeTTL <= 0 {
		return fmt.Errorf("shoe ttl must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.UI.LogFormat] {
		return fmt.Errorf("invalid log format: %s", c.UI.LogFormat)
	}

	return nil
}

// ServerAddress returns the listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RequestTimeout returns the per-request deadline for the deck service
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Deck.RequestTimeout) * time.Second
}

// ShoeTTL returns how long idle shoes are kept
func (c *Config) ShoeTTL() time.Duration {
	return time.Duration(c.Server.ShoeTTL) * time.Second
}

// ColorEnabled reports whether the terminal client should use color
func (c *Config) ColorEnabled() bool {
	return !c.UI.NoColor
}
