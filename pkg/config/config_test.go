// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/crates-index/pkg/store"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		data     string
		expected Config
	}{
		{
			name:     "Empty",
			data:     "",
			expected: Default(),
		},
		{
			name: "Full",
			data: `
log:
  level: debug
  format: json
  filename: /var/log/crates-index/index.log
  max_size: 10
  compress: true
store:
  backend: sqlite
  path: /srv/registry.db
sentry:
  enabled: true
  dsn: https://key@sentry.example.com/1
  environment: staging
  flush_timeout: 5s
`,
			expected: Config{
				Log: Log{
					Level:      "debug",
					Format:     "json",
					Filename:   "/var/log/crates-index/index.log",
					MaxSize:    10,
					MaxBackups: 3,
					MaxAge:     28,
					Compress:   true,
				},
				Store: Store{Backend: BackendSQLite, Path: "/srv/registry.db"},
				Sentry: Sentry{
					Enabled:      true,
					DSN:          "https://key@sentry.example.com/1",
					Environment:  "staging",
					FlushTimeout: 5 * time.Second,
				},
			},
		},
		{
			name: "Firestore",
			data: "store:\n  backend: firestore\n  project: my-project\n",
			expected: func() Config {
				c := Default()
				c.Store = Store{Backend: BackendFirestore, Project: "my-project"}
				return c
			}(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.data))
			if err != nil {
				t.Fatalf("Parse(): %v", err)
			}
			if diff := cmp.Diff(tc.expected, *got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"Unknown key", "store:\n  backend: memory\n  bucket: x\n", "field bucket not found"},
		{"Bad level", "log:\n  level: loud\n", "log.level"},
		{"Bad format", "log:\n  format: xml\n", "log.format"},
		{"Unknown backend", "store:\n  backend: postgres\n", "store.backend"},
		{"SQLite without path", "store:\n  backend: sqlite\n", "store.path"},
		{"Firestore without project", "store:\n  backend: firestore\n", "store.project"},
		{"Sentry without DSN", "sentry:\n  enabled: true\n", "no DSN"},
		{"Not YAML", "log: [", "parsing config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Parse() error = %q, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Load() log level = %q, want warn", cfg.Log.Level)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded, want error")
	}
}

func TestNewLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "index.log")
	cfg := Default().Log
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Filename = logPath
	logger, closer, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger(): %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("logger level = %v, want debug", logger.GetLevel())
	}
	logger.WithField("crate", "demo").Debug("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"crate":"demo"`) || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q, want the JSON entry", data)
	}
}

func TestNewSink(t *testing.T) {
	logger := logrus.New()
	sink, closer, err := NewSink(Sentry{Enabled: true, DSN: "https://key@sentry.example.com/1", FlushTimeout: time.Millisecond}, logger)
	if err != nil {
		t.Fatalf("NewSink(): %v", err)
	}
	if sink == nil {
		t.Fatal("NewSink() returned a nil sink")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close(): %v", err)
	}
	if _, _, err := NewSink(Sentry{Enabled: true, DSN: "not a dsn"}, logger); err == nil {
		t.Error("NewSink() with a malformed DSN succeeded, want error")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Default()
	cfg.Log.Filename = filepath.Join(dir, "index.log")
	cfg.Store = Store{Backend: BackendSQLite, Path: filepath.Join(dir, "registry.db")}

	// Seed through a separate handle: the Generator only reads.
	s, seedCloser, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		t.Fatalf("OpenStore(): %v", err)
	}
	c := store.Crate{Name: "demo"}
	if err := s.PutCrate(ctx, &c); err != nil {
		t.Fatalf("PutCrate(): %v", err)
	}
	if err := s.PutVersion(ctx, &store.Version{CrateID: c.ID, Num: "0.1.0", Checksum: "aa"}); err != nil {
		t.Fatalf("PutVersion(): %v", err)
	}
	if err := seedCloser.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	g, closer, err := Open(ctx, &cfg)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer closer.Close()
	data, found, err := g.IndexData(ctx, "demo")
	if err != nil || !found {
		t.Fatalf("IndexData() = (_, %v, %v)", found, err)
	}
	if !strings.HasPrefix(data, `{"name":"demo","vers":"0.1.0",`) {
		t.Errorf("IndexData() = %q", data)
	}
}

func TestOpenInvalid(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "postgres"
	if _, _, err := Open(context.Background(), &cfg); err == nil {
		t.Error("Open() with an unknown backend succeeded, want error")
	}
}
