// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-memory store.Store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/crates-index/pkg/store"
	"github.com/pkg/errors"
)

// Store keeps records in insertion order. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	crates []store.Crate
	// versions and deps are keyed by owner ID.
	versions map[string][]store.Version
	deps     map[string][]store.Dependency
	byID     map[string]int
}

var _ store.Store = &Store{}

// New creates an empty Store.
func New() *Store {
	return &Store{
		versions: make(map[string][]store.Version),
		deps:     make(map[string][]store.Dependency),
		byID:     make(map[string]int),
	}
}

// CrateByName implements store.Reader.
func (s *Store) CrateByName(_ context.Context, name string) (*store.Crate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.crates {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

// Versions implements store.Reader.
func (s *Store) Versions(_ context.Context, crateID string) ([]store.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.versions[crateID]), nil
}

// Dependencies implements store.Reader.
func (s *Store) Dependencies(_ context.Context, versionIDs []string) ([]store.DependencyRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []store.DependencyRow
	seen := make(map[string]bool)
	for _, vid := range versionIDs {
		if seen[vid] {
			continue
		}
		seen[vid] = true
		for _, d := range s.deps[vid] {
			i, ok := s.byID[d.CrateID]
			if !ok {
				// Inner join semantics: dangling references are dropped.
				continue
			}
			rows = append(rows, store.DependencyRow{Dependency: d, CrateName: s.crates[i].Name})
		}
	}
	return rows, nil
}

// PutCrate implements store.Writer. Putting an existing ID replaces the crate.
func (s *Store) PutCrate(_ context.Context, c *store.Crate) error {
	if c.Name == "" {
		return errors.New("crate name is required")
	}
	store.EnsureID(&c.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.crates {
		if existing.Name == c.Name && existing.ID != c.ID {
			return errors.Errorf("crate %q already exists", c.Name)
		}
	}
	if i, ok := s.byID[c.ID]; ok {
		s.crates[i] = *c
		return nil
	}
	s.byID[c.ID] = len(s.crates)
	s.crates = append(s.crates, *c)
	return nil
}

// PutVersion implements store.Writer.
func (s *Store) PutVersion(_ context.Context, v *store.Version) error {
	store.EnsureID(&v.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[v.CrateID]; !ok {
		return errors.Errorf("unknown crate %q", v.CrateID)
	}
	stored := *v
	stored.Features = maps.Clone(v.Features)
	s.versions[v.CrateID] = append(s.versions[v.CrateID], stored)
	return nil
}

// PutDependency implements store.Writer.
func (s *Store) PutDependency(_ context.Context, d *store.Dependency) error {
	store.EnsureID(&d.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *d
	stored.Features = slices.Clone(d.Features)
	s.deps[d.VersionID] = append(s.deps[d.VersionID], stored)
	return nil
}

// DeleteVersions removes every version of a crate but keeps the crate.
func (s *Store) DeleteVersions(_ context.Context, crateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[crateID] {
		delete(s.deps, v.ID)
	}
	delete(s.versions, crateID)
	return nil
}
