package infra

import (
	"fmt"
	"os"

	"grid_go/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration. Secrets are overridden
// from environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL    string `yaml:"ws_url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"feed"`

	Gateway struct {
		Mode            string  `yaml:"mode"` // PAPER or LIVE
		RestURL         string  `yaml:"rest_url"`
		AccessKey       string  `yaml:"access_key"`
		SecretKey       string  `yaml:"secret_key"`
		Passphrase      string  `yaml:"passphrase"`
		InitialBalance  float64 `yaml:"initial_balance"`   // paper mode quote balance
		PositionPollSec int     `yaml:"position_poll_sec"` // 0 disables the poller
		OrderPollSec    int     `yaml:"order_poll_sec"`    // fill feedback interval, 0 = default
	} `yaml:"gateway"`

	Grid strategy.GridConfig `yaml:"grid"`

	Storage struct {
		Path string `yaml:"path"` // empty = OS default location
	} `yaml:"storage"`

	Sink struct {
		WebhookURL string `yaml:"webhook_url"` // empty disables the webhook sink
	} `yaml:"sink"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Feed.WSURL == "" || (!hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://")) {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}

	switch c.Gateway.Mode {
	case "PAPER", "LIVE":
	default:
		return fmt.Errorf("unknown gateway mode: %s", c.Gateway.Mode)
	}
	if c.Gateway.Mode == "LIVE" && !hasPrefix(c.Gateway.RestURL, "https://") {
		return fmt.Errorf("invalid gateway REST URL: %s", c.Gateway.RestURL)
	}

	// Grid parameters fail fast, never clamp.
	if err := c.Grid.Validate(); err != nil {
		return err
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overwrites secret values from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("GRID_ACCESS_KEY"); key != "" {
		cfg.Gateway.AccessKey = key
	}
	if secret := os.Getenv("GRID_SECRET_KEY"); secret != "" {
		cfg.Gateway.SecretKey = secret
	}
	if pass := os.Getenv("GRID_PASSPHRASE"); pass != "" {
		cfg.Gateway.Passphrase = pass
	}
}
