// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"testing"

	"github.com/google/crates-index/pkg/store"
	"github.com/google/crates-index/pkg/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestPutCrateDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.PutCrate(ctx, &store.Crate{Name: "demo"}); err != nil {
		t.Fatalf("PutCrate(): %v", err)
	}
	if err := s.PutCrate(ctx, &store.Crate{Name: "demo"}); err == nil {
		t.Error("PutCrate() with a taken name succeeded, want error")
	}
}

func TestPutVersionUnknownCrate(t *testing.T) {
	if err := New().PutVersion(context.Background(), &store.Version{CrateID: "nope", Num: "1.0.0"}); err == nil {
		t.Error("PutVersion() for an unknown crate succeeded, want error")
	}
}

func TestDeleteVersions(t *testing.T) {
	ctx := context.Background()
	s := New()
	f := storetest.Seed(ctx, t, s)
	if err := s.DeleteVersions(ctx, f.Serde.ID); err != nil {
		t.Fatalf("DeleteVersions(): %v", err)
	}
	vs, err := s.Versions(ctx, f.Serde.ID)
	if err != nil {
		t.Fatalf("Versions(): %v", err)
	}
	if len(vs) != 0 {
		t.Errorf("Versions() after DeleteVersions = %v, want none", vs)
	}
	rows, err := s.Dependencies(ctx, []string{f.V1.ID, f.V2.ID})
	if err != nil {
		t.Fatalf("Dependencies(): %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Dependencies() after DeleteVersions = %v, want none", rows)
	}
	if _, err := s.CrateByName(ctx, "serde"); err != nil {
		t.Errorf("CrateByName() after DeleteVersions: %v", err)
	}
}
