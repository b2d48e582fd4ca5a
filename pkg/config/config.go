// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the index generator and
// assembles a Generator from it.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config is the top-level configuration file.
type Config struct {
	Log    Log    `yaml:"log"`
	Store  Store  `yaml:"store"`
	Sentry Sentry `yaml:"sentry"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	// Filename, if set, also writes logs to a rotated file.
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// Store selects where registry data is read from.
type Store struct {
	Backend string `yaml:"backend"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// Project is the Firestore project ID.
	Project string `yaml:"project"`
}

// Sentry configures anomaly delivery to Sentry. Anomalies are always logged.
type Sentry struct {
	Enabled      bool          `yaml:"enabled"`
	DSN          string        `yaml:"dsn"`
	Debug        bool          `yaml:"debug"`
	Environment  string        `yaml:"environment"`
	FlushTimeout time.Duration `yaml:"flush_timeout"`
}

// Default returns the configuration used for absent settings.
func Default() Config {
	return Config{
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Store:  Store{Backend: BackendMemory},
		Sentry: Sentry{FlushTimeout: 2 * time.Second},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// Parse decodes a configuration over the defaults and validates it. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite backend")
		}
	case BackendFirestore:
		if c.Store.Project == "" {
			return errors.New("store.project is required for the firestore backend")
		}
	default:
		return errors.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		return errors.New("sentry enabled but no DSN provided")
	}
	return nil
}
