// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package indexgen produces the sparse-index file of a crate from the
// registry's stored crates, versions and dependencies.
package indexgen

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/crates-index/pkg/anomaly"
	"github.com/google/crates-index/pkg/registry/cratesio/index"
	"github.com/google/crates-index/pkg/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Generator reads registry state and renders index files.
type Generator struct {
	Reader store.Reader
	// Sink receives data anomalies found while generating.
	Sink   anomaly.Sink
	Logger logrus.FieldLogger
}

// New returns a Generator over r. A nil sink discards anomalies and a nil
// logger discards log output.
func New(r store.Reader, sink anomaly.Sink, logger logrus.FieldLogger) *Generator {
	if sink == nil {
		sink = anomaly.Discard
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Generator{Reader: r, Sink: sink, Logger: logger}
}

// IndexMetadata returns one record per version of krate, in index order.
func IndexMetadata(ctx context.Context, r store.Reader, krate *store.Crate) ([]index.Crate, error) {
	versions, err := r.Versions(ctx, krate.ID)
	if err != nil {
		return nil, errors.Wrap(err, "loading versions")
	}
	SortVersions(versions)
	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	rows, err := r.Dependencies(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading dependencies")
	}
	byVersion := make(map[string][]store.DependencyRow, len(versions))
	for _, row := range rows {
		byVersion[row.VersionID] = append(byVersion[row.VersionID], row)
	}
	crates := make([]index.Crate, 0, len(versions))
	for _, v := range versions {
		crates = append(crates, Transform(krate.Name, v, byVersion[v.ID]))
	}
	return crates, nil
}

// Records returns the index records of the crate with exactly this name.
// found is false when no such crate exists.
func (g *Generator) Records(ctx context.Context, name string) (crates []index.Crate, found bool, err error) {
	log := g.Logger.WithField("crate", name)
	log.Debug("looking up crate by name")
	krate, err := g.Reader.CrateByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrap(err, "looking up crate")
	}
	log.Debug("gathering remaining index data")
	crates, err = IndexMetadata(ctx, g.Reader, krate)
	if err != nil {
		return nil, false, err
	}
	return crates, true, nil
}

// IndexData renders the index file contents for a crate.
//
// found is false both when the crate does not exist and when it exists with
// no versions. The latter should never happen, so it is reported to the Sink
// before returning.
func (g *Generator) IndexData(ctx context.Context, name string) (data string, found bool, err error) {
	crates, found, err := g.Records(ctx, name)
	if err != nil || !found {
		return "", false, err
	}
	if len(crates) == 0 {
		g.Sink.Report(anomaly.LevelWarning, fmt.Sprintf("Crate `%s` has no versions left", name))
		return "", false, nil
	}
	g.Logger.WithField("crate", name).Debug("serializing index data")
	var b strings.Builder
	if err := index.WriteCrates(&b, crates); err != nil {
		return "", false, errors.Wrap(err, "serializing index metadata")
	}
	return b.String(), true, nil
}

// IndexFile is IndexData along with the path of the file in the index tree.
func (g *Generator) IndexFile(ctx context.Context, name string) (path, contents string, found bool, err error) {
	contents, found, err = g.IndexData(ctx, name)
	if err != nil || !found {
		return "", "", false, err
	}
	return index.EntryPath(name), contents, true, nil
}
