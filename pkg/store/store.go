// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package store defines the persisted crate, version and dependency records
// and the read capability the index generator consumes.
package store

import (
	"context"
	"time"

	"github.com/google/crates-index/pkg/registry/cratesio/index"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Reader.CrateByName when no crate has the name.
var ErrNotFound = errors.New("crate not found")

// Crate is a registered package.
type Crate struct {
	ID   string `firestore:"id"`
	Name string `firestore:"name"`
}

// Version is one published version of a crate.
type Version struct {
	ID      string `firestore:"id"`
	CrateID string `firestore:"crate_id"`
	// Num is the version string as published. It is not guaranteed to parse.
	Num       string    `firestore:"num"`
	CreatedAt time.Time `firestore:"created_at"`
	Checksum  string    `firestore:"checksum"`
	Yanked    bool      `firestore:"yanked"`
	// Links is the native library the crate links, if any.
	Links       *string `firestore:"links"`
	RustVersion *string `firestore:"rust_version"`
	// Features is the raw feature table of the manifest.
	Features map[string][]string `firestore:"features"`
}

// Dependency is a requirement a version has on another crate.
type Dependency struct {
	ID        string `firestore:"id"`
	VersionID string `firestore:"version_id"`
	// CrateID identifies the crate depended on.
	CrateID         string               `firestore:"crate_id"`
	Req             string               `firestore:"req"`
	Optional        bool                 `firestore:"optional"`
	DefaultFeatures bool                 `firestore:"default_features"`
	Features        []string             `firestore:"features"`
	Target          *string              `firestore:"target"`
	Kind            index.DependencyKind `firestore:"kind"`
	// ExplicitName is the name the dependent uses for the crate, when it
	// renamed it in its manifest.
	ExplicitName *string `firestore:"explicit_name"`
}

// DependencyRow is a Dependency joined with the current name of its crate.
type DependencyRow struct {
	Dependency
	CrateName string
}

// Reader is the read capability index generation needs. Each method is a
// single bulk read.
type Reader interface {
	// CrateByName returns the crate with exactly this name, or ErrNotFound.
	CrateByName(ctx context.Context, name string) (*Crate, error)
	// Versions returns all versions of a crate.
	Versions(ctx context.Context, crateID string) ([]Version, error)
	// Dependencies returns every dependency owned by one of the versions.
	Dependencies(ctx context.Context, versionIDs []string) ([]DependencyRow, error)
}

// Writer records crates, versions and dependencies. Blank IDs are assigned
// and written back.
type Writer interface {
	PutCrate(ctx context.Context, c *Crate) error
	PutVersion(ctx context.Context, v *Version) error
	PutDependency(ctx context.Context, d *Dependency) error
}

// Store is a Reader that can also be written to.
type Store interface {
	Reader
	Writer
}

// EnsureID assigns a random ID if id is blank.
func EnsureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
