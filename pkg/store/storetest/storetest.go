// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package storetest provides a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/crates-index/pkg/registry/cratesio/index"
	"github.com/google/crates-index/pkg/store"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

// Fixture is the data Seed writes.
type Fixture struct {
	Serde, Derive, Other store.Crate
	V1, V2, OtherV       store.Version
	DeriveDep, DevDep    store.Dependency
}

// Seed writes a small registry: "serde" with two versions depending on
// "serde_derive", and an unrelated crate "Serde2" with one version.
func Seed(ctx context.Context, t *testing.T, s store.Writer) Fixture {
	t.Helper()
	var f Fixture
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.Serde = store.Crate{Name: "serde"}
	f.Derive = store.Crate{Name: "serde_derive"}
	f.Other = store.Crate{Name: "Serde2"}
	for _, c := range []*store.Crate{&f.Serde, &f.Derive, &f.Other} {
		if err := s.PutCrate(ctx, c); err != nil {
			t.Fatalf("PutCrate(%s): %v", c.Name, err)
		}
	}
	f.V1 = store.Version{
		CrateID:   f.Serde.ID,
		Num:       "1.0.0",
		CreatedAt: created,
		Checksum:  "aaaa",
		Features:  map[string][]string{"default": {"std"}, "std": {}},
	}
	f.V2 = store.Version{
		CrateID:     f.Serde.ID,
		Num:         "1.0.1",
		CreatedAt:   created.Add(time.Hour),
		Checksum:    "bbbb",
		Yanked:      true,
		Links:       ptr("serde"),
		RustVersion: ptr("1.31"),
		Features:    map[string][]string{"derive": {"dep:serde_derive"}},
	}
	f.OtherV = store.Version{
		CrateID:   f.Other.ID,
		Num:       "0.1.0",
		CreatedAt: created,
		Checksum:  "cccc",
	}
	for _, v := range []*store.Version{&f.V1, &f.V2, &f.OtherV} {
		if err := s.PutVersion(ctx, v); err != nil {
			t.Fatalf("PutVersion(%s): %v", v.Num, err)
		}
	}
	f.DeriveDep = store.Dependency{
		VersionID:       f.V2.ID,
		CrateID:         f.Derive.ID,
		Req:             "=1.0.1",
		Optional:        true,
		DefaultFeatures: true,
		Features:        []string{"std"},
		Kind:            index.KindNormal,
		ExplicitName:    ptr("derive"),
	}
	f.DevDep = store.Dependency{
		VersionID: f.V1.ID,
		CrateID:   f.Other.ID,
		Req:       "^0.1",
		Target:    ptr("cfg(unix)"),
		Kind:      index.KindDev,
	}
	for _, d := range []*store.Dependency{&f.DeriveDep, &f.DevDep} {
		if err := s.PutDependency(ctx, d); err != nil {
			t.Fatalf("PutDependency(%s): %v", d.Req, err)
		}
	}
	return f
}

var opts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmpopts.SortSlices(func(a, b store.Version) bool { return a.ID < b.ID }),
	cmpopts.SortSlices(func(a, b store.DependencyRow) bool { return a.ID < b.ID }),
}

// Run exercises a store.Store. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()
	t.Run("CrateByName", func(t *testing.T) {
		s := newStore(t)
		f := Seed(ctx, t, s)
		c, err := s.CrateByName(ctx, "serde")
		if err != nil {
			t.Fatalf("CrateByName(serde): %v", err)
		}
		if diff := cmp.Diff(&f.Serde, c); diff != "" {
			t.Errorf("CrateByName(serde) mismatch (-want +got):\n%s", diff)
		}
		for _, name := range []string{"Serde", "serde2", "missing", ""} {
			if _, err := s.CrateByName(ctx, name); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("CrateByName(%q) error = %v, want ErrNotFound", name, err)
			}
		}
	})
	t.Run("Versions", func(t *testing.T) {
		s := newStore(t)
		f := Seed(ctx, t, s)
		vs, err := s.Versions(ctx, f.Serde.ID)
		if err != nil {
			t.Fatalf("Versions(): %v", err)
		}
		if diff := cmp.Diff([]store.Version{f.V1, f.V2}, vs, opts...); diff != "" {
			t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
		}
		vs, err = s.Versions(ctx, f.Derive.ID)
		if err != nil {
			t.Fatalf("Versions(): %v", err)
		}
		if len(vs) != 0 {
			t.Errorf("Versions(serde_derive) = %v, want none", vs)
		}
	})
	t.Run("Dependencies", func(t *testing.T) {
		s := newStore(t)
		f := Seed(ctx, t, s)
		rows, err := s.Dependencies(ctx, []string{f.V1.ID, f.V2.ID})
		if err != nil {
			t.Fatalf("Dependencies(): %v", err)
		}
		expected := []store.DependencyRow{
			{Dependency: f.DeriveDep, CrateName: "serde_derive"},
			{Dependency: f.DevDep, CrateName: "Serde2"},
		}
		if diff := cmp.Diff(expected, rows, opts...); diff != "" {
			t.Errorf("Dependencies() mismatch (-want +got):\n%s", diff)
		}
		rows, err = s.Dependencies(ctx, []string{f.OtherV.ID})
		if err != nil {
			t.Fatalf("Dependencies(): %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("Dependencies(Serde2 0.1.0) = %v, want none", rows)
		}
		rows, err = s.Dependencies(ctx, nil)
		if err != nil {
			t.Fatalf("Dependencies(nil): %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("Dependencies(nil) = %v, want none", rows)
		}
	})
	t.Run("DanglingCrateReference", func(t *testing.T) {
		s := newStore(t)
		f := Seed(ctx, t, s)
		dangling := store.Dependency{
			VersionID: f.V1.ID,
			CrateID:   "no-such-crate",
			Req:       "^1",
			Kind:      index.KindNormal,
		}
		// A store may refuse the reference outright; if it accepts it, reads
		// must leave it out.
		if err := s.PutDependency(ctx, &dangling); err != nil {
			t.Logf("PutDependency() rejected a dangling crate reference: %v", err)
		}
		rows, err := s.Dependencies(ctx, []string{f.V1.ID})
		if err != nil {
			t.Fatalf("Dependencies(): %v", err)
		}
		expected := []store.DependencyRow{{Dependency: f.DevDep, CrateName: "Serde2"}}
		if diff := cmp.Diff(expected, rows, opts...); diff != "" {
			t.Errorf("Dependencies() mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("AssignsIDs", func(t *testing.T) {
		s := newStore(t)
		f := Seed(ctx, t, s)
		ids := map[string]bool{}
		for _, id := range []string{f.Serde.ID, f.Derive.ID, f.Other.ID, f.V1.ID, f.V2.ID, f.OtherV.ID, f.DeriveDep.ID, f.DevDep.ID} {
			if id == "" || ids[id] {
				t.Errorf("ID %q is blank or reused", id)
			}
			ids[id] = true
		}
	})
}
