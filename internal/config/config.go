// Package config loads the service configuration from a YAML file with
// environment overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFeeds matches the stock deployment: big general-news firehoses.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
	"https://www.reddit.com/r/worldnews/.rss",
}

type Config struct {
	Listen string `yaml:"listen" json:"listen"`
	DBPath string `yaml:"dbPath" json:"dbPath"`

	// TriggerSecret authorizes the tick trigger endpoint. Environment
	// variable BUZZMARKET_TRIGGER_SECRET wins over the file value. Empty
	// means every trigger call is rejected.
	TriggerSecret string `yaml:"triggerSecret" json:"-"`

	Feeds              []string `yaml:"feeds" json:"feeds"`
	FeedTimeoutSeconds int      `yaml:"feedTimeoutSeconds" json:"feedTimeoutSeconds"`

	// TickIntervalSeconds > 0 runs the tick on an internal timer as well;
	// 0 leaves scheduling entirely to the external trigger.
	TickIntervalSeconds int `yaml:"tickIntervalSeconds" json:"tickIntervalSeconds"`

	Log LogConfig `yaml:"log" json:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" json:"maxAgeDays"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Load reads the config at path and applies env overrides and defaults. An
// empty path yields a pure default config (env overrides still apply).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BUZZMARKET_TRIGGER_SECRET")); v != "" {
		c.TriggerSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("BUZZMARKET_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("BUZZMARKET_DB")); v != "" {
		c.DBPath = v
	}
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "data/market.db"
	}
	if len(c.Feeds) == 0 {
		c.Feeds = append([]string(nil), DefaultFeeds...)
	}
	if c.FeedTimeoutSeconds <= 0 {
		c.FeedTimeoutSeconds = 15
	}
	if c.TickIntervalSeconds < 0 {
		c.TickIntervalSeconds = 0
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 14
	}
}

// FeedTimeout returns the per-feed fetch timeout.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.FeedTimeoutSeconds) * time.Second
}

// TickInterval returns the internal tick period, zero when disabled.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}
