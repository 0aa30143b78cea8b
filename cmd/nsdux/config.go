package main

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment.
type Config struct {
	Addr      string `env:"NSDUX_ADDR" envDefault:":8080"`
	Key       string `env:"NSDUX_KEY"`
	LogLevel  string `env:"NSDUX_LOG_LEVEL" envDefault:"info"`
	ImportURL string `env:"NSDUX_IMPORT_URL"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level returns the configured slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("NSDUX_LOG_LEVEL: %w", err)
	}
	return level, nil
}
