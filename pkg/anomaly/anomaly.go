// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package anomaly reports data inconsistencies to operators.
//
// A Sink never blocks or fails the operation that found the anomaly.
package anomaly

import (
	"io"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Level is the severity of a report.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sink accepts operator-visible reports.
type Sink interface {
	Report(level Level, message string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Level, string)

// Report implements Sink.
func (f SinkFunc) Report(level Level, message string) { f(level, message) }

// Discard drops every report.
var Discard Sink = SinkFunc(func(Level, string) {})

// LogSink writes reports to a logger. A nil Logger drops reports.
type LogSink struct {
	Logger logrus.FieldLogger
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Report implements Sink.
func (s LogSink) Report(level Level, message string) {
	logger := s.Logger
	if logger == nil {
		logger = discardLogger
	}
	entry := logger.WithField("anomaly", true)
	switch level {
	case LevelDebug:
		entry.Debug(message)
	case LevelInfo:
		entry.Info(message)
	case LevelWarning:
		entry.Warn(message)
	default:
		// Fatal is reported, not acted on: a Sink must not end the process.
		entry.Error(message)
	}
}

// SentrySink captures reports as Sentry message events.
type SentrySink struct {
	Hub *sentry.Hub
	// FlushTimeout, if set, waits up to that long for delivery after each
	// report. Zero leaves delivery fully asynchronous.
	FlushTimeout time.Duration
}

// Report implements Sink.
func (s SentrySink) Report(level Level, message string) {
	s.Hub.CaptureEvent(&sentry.Event{
		Level:   sentryLevel(level),
		Message: message,
	})
	if s.FlushTimeout > 0 {
		s.Hub.Flush(s.FlushTimeout)
	}
}

func sentryLevel(l Level) sentry.Level {
	switch l {
	case LevelDebug:
		return sentry.LevelDebug
	case LevelInfo:
		return sentry.LevelInfo
	case LevelWarning:
		return sentry.LevelWarning
	case LevelError:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}

// Multi fans reports out to every sink, in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(level Level, message string) {
		for _, s := range sinks {
			s.Report(level, message)
		}
	})
}

// Record is one report seen by a Recorder.
type Record struct {
	Level   Level
	Message string
}

// Recorder keeps every report in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// Report implements Sink.
func (r *Recorder) Report(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Level: level, Message: message})
}

// Records returns a copy of the reports so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}
