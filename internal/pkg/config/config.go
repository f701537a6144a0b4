package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Sources  SourcesConfig  `yaml:"sources"`
	Engine   EngineConfig   `yaml:"engine"`
	Health   HealthConfig   `yaml:"health"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"` // per-source latest listing snapshot
}

type SourcesConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per-source fetch timeout
	// Endpoints maps source code to the scraper service base URL serving GET /listings.
	Endpoints map[string]string `yaml:"endpoints"`
}

type EngineConfig struct {
	Interval time.Duration `yaml:"interval"` // scheduler interval between cycles
	// SourcePriority is the ordered list of source codes whose metadata
	// (country, tournament, schedule) wins when several sources list the
	// same fixture.
	SourcePriority       []string `yaml:"source_priority"`
	SecondaryBatchSize   int      `yaml:"secondary_batch_size"` // progress reporting only
	HistoryRetentionDays int      `yaml:"history_retention_days"`
	MarginRetentionDays  int      `yaml:"margin_retention_days"`
	PersistWorkers       int      `yaml:"persist_workers"` // parallel fixture writes
}

type HealthConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type TelegramConfig struct {
	Enabled              bool    `yaml:"enabled"`
	BotToken             string  `yaml:"bot_token"`
	ChatID               int64   `yaml:"chat_id"`
	DiffAlertPercent     float64 `yaml:"diff_alert_percent"`     // best/worst price gap that triggers an alert
	AlertCooldownMinutes int     `yaml:"alert_cooldown_minutes"` // per-fixture alert suppression window
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 30 * time.Second
	}
	if c.Redis.SnapshotTTL <= 0 {
		c.Redis.SnapshotTTL = time.Hour
	}
	if c.Engine.Interval <= 0 {
		c.Engine.Interval = 5 * time.Minute
	}
	if c.Engine.SecondaryBatchSize <= 0 {
		c.Engine.SecondaryBatchSize = 50
	}
	if c.Engine.HistoryRetentionDays <= 0 {
		c.Engine.HistoryRetentionDays = 14
	}
	if c.Engine.MarginRetentionDays <= 0 {
		c.Engine.MarginRetentionDays = 30
	}
	if c.Engine.PersistWorkers <= 0 {
		c.Engine.PersistWorkers = 4
	}
	if c.Health.ReadHeaderTimeout <= 0 {
		c.Health.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Telegram.AlertCooldownMinutes <= 0 {
		c.Telegram.AlertCooldownMinutes = 60
	}
}
