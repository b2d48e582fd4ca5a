// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/getsentry/sentry-go"
	"github.com/google/crates-index/pkg/anomaly"
	"github.com/google/crates-index/pkg/indexgen"
	"github.com/google/crates-index/pkg/store"
	"github.com/google/crates-index/pkg/store/firestorestore"
	"github.com/google/crates-index/pkg/store/memory"
	"github.com/google/crates-index/pkg/store/sqlstore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// closers runs cleanup functions in reverse order of registration.
type closers []func() error

func (cs closers) Close() error {
	var first error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewLogger builds a logger writing to stderr and, when a filename is set,
// to a rotated log file. The returned Closer releases the file.
func NewLogger(cfg Log) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing log level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.Filename == "" {
		logger.SetOutput(os.Stderr)
		return logger, closers(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		return nil, nil, errors.Wrap(err, "creating log directory")
	}
	file := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return logger, file, nil
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg Store) (store.Store, io.Closer, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memory.New(), closers(nil), nil
	case BackendSQLite:
		s, err := sqlstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, closers{s.Close}, nil
	case BackendFirestore:
		s, err := firestorestore.Open(ctx, cfg.Project)
		if err != nil {
			return nil, nil, err
		}
		return s, closers{s.Close}, nil
	default:
		return nil, nil, errors.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewSink returns the anomaly sink: the log, plus Sentry when enabled. The
// returned Closer flushes pending Sentry events.
func NewSink(cfg Sentry, logger logrus.FieldLogger) (anomaly.Sink, io.Closer, error) {
	logSink := anomaly.LogSink{Logger: logger}
	if !cfg.Enabled {
		return logSink, closers(nil), nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Debug:       cfg.Debug,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating sentry client")
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	flush := func() error {
		if !client.Flush(cfg.FlushTimeout) {
			logger.Warn("sentry events not delivered before flush timeout")
		}
		return nil
	}
	return anomaly.Multi(logSink, anomaly.SentrySink{Hub: hub}), closers{flush}, nil
}

// Open assembles a Generator from cfg. The returned Closer releases every
// resource Open acquired.
func Open(ctx context.Context, cfg *Config) (*indexgen.Generator, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	var cs closers
	fail := func(err error) (*indexgen.Generator, io.Closer, error) {
		cs.Close()
		return nil, nil, err
	}
	logger, logCloser, err := NewLogger(cfg.Log)
	if err != nil {
		return fail(err)
	}
	cs = append(cs, logCloser.Close)
	s, storeCloser, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return fail(errors.Wrap(err, "opening store"))
	}
	cs = append(cs, storeCloser.Close)
	sink, sinkCloser, err := NewSink(cfg.Sentry, logger)
	if err != nil {
		return fail(err)
	}
	cs = append(cs, sinkCloser.Close)
	logger.WithField("backend", cfg.Store.Backend).Info("index generator ready")
	return indexgen.New(s, sink, logger), cs, nil
}
