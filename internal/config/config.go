package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
// Values come from defaults, then the YAML file, then COLDCHAIN_* environment variables.
type Config struct {
	Stations  []domain.StationSpec `yaml:"stations"`
	Staleness Staleness            `yaml:"staleness"`
	Logs      Logs                 `yaml:"logs"`
	Snapshot  Snapshot             `yaml:"snapshot"`
	HTTP      HTTP                 `yaml:"http"`
	Redis     Redis                `yaml:"redis"`
	Observers Observers            `yaml:"observers"`
	Root      `yaml:",inline"`
}

// Root holds top-level scalar settings.
type Root struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Staleness holds the offline detection policy.
type Staleness struct {
	Threshold time.Duration `yaml:"threshold" env:"THRESHOLD"`
	Interval  time.Duration `yaml:"interval" env:"INTERVAL"`
}

// Logs holds the capacities of the bounded windows.
type Logs struct {
	Events        int `yaml:"events" env:"EVENTS"`
	Notifications int `yaml:"notifications" env:"NOTIFICATIONS"`
	Alerts        int `yaml:"alerts" env:"ALERTS"`
}

// Snapshot bounds what a new observer receives.
type Snapshot struct {
	Events        int `yaml:"events" env:"EVENTS"`
	Notifications int `yaml:"notifications" env:"NOTIFICATIONS"`
	Alerts        int `yaml:"alerts" env:"ALERTS"`
}

// HTTP configures the observer/ingest server.
type HTTP struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Redis configures the pub/sub transport. An empty address disables it.
type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
	// Mirror republishes observer messages on "<prefix>:deltas" when set.
	Mirror bool `yaml:"mirror" env:"MIRROR"`
}

// Observers configures the per-observer queues.
type Observers struct {
	Buffer int `yaml:"buffer" env:"BUFFER"`
}

// Default reproduces the original three-portal deployment.
func Default() Config {
	return Config{
		Stations: []domain.StationSpec{
			{ID: "producao", Name: "Recebimento"},
			{ID: "camara_fria", Name: "Estoque"},
			{ID: "expedicao", Name: "Expedição"},
		},
		Staleness: Staleness{Threshold: 30 * time.Second, Interval: 10 * time.Second},
		Logs:      Logs{Events: 100, Notifications: 20, Alerts: 100},
		Snapshot:  Snapshot{Events: 100, Notifications: 20, Alerts: 10},
		HTTP:      HTTP{Addr: ":3000"},
		Redis:     Redis{Prefix: "coldchain"},
		Observers: Observers{Buffer: 64},
		Root:      Root{LogLevel: "info"},
	}
}

// Load reads the YAML file at path (optional when empty or missing),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Parse(data, &cfg); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist):
			// No file: defaults plus environment.
		default:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays COLDCHAIN_* variables. Stations are file-only.
func applyEnv(cfg *Config) error {
	targets := []struct {
		prefix string
		v      any
	}{
		{"COLDCHAIN_STALENESS_", &cfg.Staleness},
		{"COLDCHAIN_LOGS_", &cfg.Logs},
		{"COLDCHAIN_SNAPSHOT_", &cfg.Snapshot},
		{"COLDCHAIN_HTTP_", &cfg.HTTP},
		{"COLDCHAIN_REDIS_", &cfg.Redis},
		{"COLDCHAIN_OBSERVERS_", &cfg.Observers},
		{"COLDCHAIN_", &cfg.Root},
	}
	for _, t := range targets {
		if err := env.ParseWithOptions(t.v, env.Options{Prefix: t.prefix}); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
	}
	return nil
}

// Parse decodes YAML into cfg, keeping fields the document does not set.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Validate checks the station sequence and policy values.
func (c Config) Validate() error {
	ids := make([]string, 0, len(c.Stations))
	for _, s := range c.Stations {
		ids = append(ids, s.ID)
	}
	if _, err := domain.NewLifecycle(ids); err != nil {
		return fmt.Errorf("invalid stations: %w", err)
	}
	if c.Staleness.Threshold <= 0 || c.Staleness.Interval <= 0 {
		return fmt.Errorf("staleness threshold and interval must be positive")
	}
	if c.Logs.Events < 1 || c.Logs.Notifications < 1 || c.Logs.Alerts < 1 {
		return fmt.Errorf("log capacities must be at least 1")
	}
	if c.Observers.Buffer < 1 {
		return fmt.Errorf("observer buffer must be at least 1")
	}
	return nil
}

// StationIDs returns the station IDs in lifecycle order.
func (c Config) StationIDs() []string {
	ids := make([]string, 0, len(c.Stations))
	for _, s := range c.Stations {
		ids = append(ids, s.ID)
	}
	return ids
}
