package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-envconfig"
)

const (
	envPrefix = "INFOPANEL_"

	DefaultFeedURL = "https://www.tagesschau.de/xml/rss2/"
)

// Config holds runtime settings for the panel.
type Config struct {
	FeedURL       string        `env:"FEED_URL, default=https://www.tagesschau.de/xml/rss2/"`
	DBPath        string        `env:"DB_PATH, default=infopanel.db"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT, default=10s"`
	MaxImageBytes int64         `env:"MAX_IMAGE_BYTES, default=5242880"`
	// Zero leaves image fetches unbounded.
	MaxWorkers int    `env:"MAX_WORKERS, default=0"`
	UserAgent  string `env:"USER_AGENT, default=infopanel/1.0"`

	LogPath   string `env:"LOG_PATH, default=infopanel.log"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"`

	// AutoRefresh is a standard five-field cron expression. Empty disables it.
	AutoRefresh string `env:"AUTO_REFRESH"`
}

func LoadFromEnv(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
	})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.FeedURL = strings.TrimSpace(cfg.FeedURL)
	cfg.AutoRefresh = strings.TrimSpace(cfg.AutoRefresh)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.FeedURL != "" {
		u, err := url.Parse(c.FeedURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("FeedURL must be an http(s) URL: %s", c.FeedURL)
		}
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FetchTimeout must be positive: %s", c.FetchTimeout)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MaxImageBytes must be positive: %d", c.MaxImageBytes)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("MaxWorkers must not be negative: %d", c.MaxWorkers)
	}
	if c.LogPath == "" {
		return errors.New("LogPath is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LogLevel must be debug, info, warn or error: %s", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LogFormat must be text or json: %s", c.LogFormat)
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	return nil
}

// Schedule parses AutoRefresh. It returns nil when auto-refresh is disabled.
func (c Config) Schedule() (cron.Schedule, error) {
	if c.AutoRefresh == "" {
		return nil, nil
	}
	sched, err := cron.ParseStandard(c.AutoRefresh)
	if err != nil {
		return nil, fmt.Errorf("AutoRefresh is not a valid cron expression: %w", err)
	}
	return sched, nil
}
