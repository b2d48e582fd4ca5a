// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package firestorestore implements store.Store on Cloud Firestore.
//
// Records live in three top-level collections keyed by record ID: "crates",
// "versions" and "dependencies". Firestore has no joins, so the crate names of
// dependencies are resolved with a single batched document read.
package firestorestore

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/google/crates-index/internal/iterx"
	"github.com/google/crates-index/pkg/store"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

const (
	cratesCollection       = "crates"
	versionsCollection     = "versions"
	dependenciesCollection = "dependencies"
	// Firestore 'in' queries are limited to 30 values.
	inQueryLimit = 30
)

// Store is a store.Store over a Firestore client.
type Store struct {
	client *firestore.Client
}

var _ store.Store = &Store{}

// New wraps an existing client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Open creates a client for project.
func Open(ctx context.Context, project string) (*Store, error) {
	if project == "" {
		return nil, errors.New("empty project provided")
	}
	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		return nil, errors.Wrap(err, "creating firestore client")
	}
	return New(client), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// CrateByName implements store.Reader.
func (s *Store) CrateByName(ctx context.Context, name string) (*store.Crate, error) {
	iter := s.client.Collection(cratesCollection).Where("name", "==", name).Limit(1).Documents(ctx)
	crates, err := collect(iter, decode[store.Crate])
	if err != nil {
		return nil, errors.Wrap(err, "query error")
	}
	if len(crates) == 0 {
		return nil, store.ErrNotFound
	}
	return &crates[0], nil
}

// Versions implements store.Reader.
func (s *Store) Versions(ctx context.Context, crateID string) ([]store.Version, error) {
	iter := s.client.Collection(versionsCollection).Where("crate_id", "==", crateID).Documents(ctx)
	versions, err := collect(iter, decode[store.Version])
	if err != nil {
		return nil, errors.Wrap(err, "query error")
	}
	return versions, nil
}

// Dependencies implements store.Reader.
func (s *Store) Dependencies(ctx context.Context, versionIDs []string) ([]store.DependencyRow, error) {
	var deps []store.Dependency
	for _, batch := range batches(versionIDs, inQueryLimit) {
		iter := s.client.Collection(dependenciesCollection).Where("version_id", "in", batch).Documents(ctx)
		found, err := collect(iter, decode[store.Dependency])
		if err != nil {
			return nil, errors.Wrap(err, "query error")
		}
		deps = append(deps, found...)
	}
	if len(deps) == 0 {
		return nil, nil
	}
	var refs []*firestore.DocumentRef
	seen := make(map[string]bool)
	for _, d := range deps {
		if !seen[d.CrateID] {
			seen[d.CrateID] = true
			refs = append(refs, s.client.Collection(cratesCollection).Doc(d.CrateID))
		}
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Wrap(err, "fetching dependency crates")
	}
	names := make(map[string]string, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		c, err := decode[store.Crate](snap)
		if err != nil {
			return nil, err
		}
		names[snap.Ref.ID] = c.Name
	}
	rows := make([]store.DependencyRow, 0, len(deps))
	for _, d := range deps {
		name, ok := names[d.CrateID]
		if !ok {
			// Inner join semantics: dangling references are dropped.
			continue
		}
		rows = append(rows, store.DependencyRow{Dependency: d, CrateName: name})
	}
	return rows, nil
}

// PutCrate implements store.Writer. Name uniqueness is not enforced.
func (s *Store) PutCrate(ctx context.Context, c *store.Crate) error {
	store.EnsureID(&c.ID)
	_, err := s.client.Collection(cratesCollection).Doc(c.ID).Set(ctx, c)
	return errors.Wrap(err, "writing crate")
}

// PutVersion implements store.Writer.
func (s *Store) PutVersion(ctx context.Context, v *store.Version) error {
	store.EnsureID(&v.ID)
	_, err := s.client.Collection(versionsCollection).Doc(v.ID).Set(ctx, v)
	return errors.Wrap(err, "writing version")
}

// PutDependency implements store.Writer.
func (s *Store) PutDependency(ctx context.Context, d *store.Dependency) error {
	store.EnsureID(&d.ID)
	_, err := s.client.Collection(dependenciesCollection).Doc(d.ID).Set(ctx, d)
	return errors.Wrap(err, "writing dependency")
}

func decode[T any](doc *firestore.DocumentSnapshot) (T, error) {
	var v T
	if err := doc.DataTo(&v); err != nil {
		return v, errors.Wrapf(err, "decoding %s", doc.Ref.Path)
	}
	return v, nil
}

// collect drains iter, transforming each document with fn.
func collect[T any](iter *firestore.DocumentIterator, fn func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()
	var out []T
	for doc, err := range iterx.ToSeq2(iter, iterator.Done) {
		if err != nil {
			return nil, err
		}
		v, err := fn(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// batches splits ids into consecutive groups of at most size, dropping duplicates.
func batches(ids []string, size int) [][]string {
	var unique []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return slices.Collect(slices.Chunk(unique, size))
}
