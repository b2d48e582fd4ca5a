// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore implements store.Store on SQLite through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/crates-index/pkg/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// maxParams stays below SQLite's host parameter limit.
const maxParams = 10000

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = &Store{}

// Open opens (creating if needed) the database at path and applies Schema.
//
// path may carry go-sqlite3 DSN parameters after a '?'. Foreign keys are
// always switched on. An in-memory database (":memory:" or mode=memory) is
// private to a connection, so the pool is held to one connection.
func Open(path string) (*Store, error) {
	name, memory, err := dsn(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, applying Schema.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, errors.Wrap(err, "initializing schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CrateByName implements store.Reader.
func (s *Store) CrateByName(ctx context.Context, name string) (*store.Crate, error) {
	var c store.Crate
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM crates WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying crate")
	}
	return &c, nil
}

// Versions implements store.Reader.
func (s *Store) Versions(ctx context.Context, crateID string) ([]store.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, crate_id, num, created_at, checksum, yanked, links, rust_version, features
		FROM versions WHERE crate_id = ? ORDER BY rowid`, crateID)
	if err != nil {
		return nil, errors.Wrap(err, "querying versions")
	}
	defer rows.Close()
	var versions []store.Version
	for rows.Next() {
		var v store.Version
		var links, rustVersion sql.NullString
		var features string
		if err := rows.Scan(&v.ID, &v.CrateID, &v.Num, &v.CreatedAt, &v.Checksum, &v.Yanked, &links, &rustVersion, &features); err != nil {
			return nil, errors.Wrap(err, "scanning version")
		}
		v.Links, v.RustVersion = fromNull(links), fromNull(rustVersion)
		if err := json.Unmarshal([]byte(features), &v.Features); err != nil {
			return nil, errors.Wrapf(err, "decoding features of version %s", v.ID)
		}
		versions = append(versions, v)
	}
	return versions, errors.Wrap(rows.Err(), "iterating versions")
}

// Dependencies implements store.Reader. The join with crates happens in the
// query; lists longer than maxParams are read in chunks.
func (s *Store) Dependencies(ctx context.Context, versionIDs []string) ([]store.DependencyRow, error) {
	var deps []store.DependencyRow
	for start := 0; start < len(versionIDs); start += maxParams {
		chunk := versionIDs[start:min(start+maxParams, len(versionIDs))]
		rows, err := s.dependencies(ctx, chunk)
		if err != nil {
			return nil, err
		}
		deps = append(deps, rows...)
	}
	return deps, nil
}

func (s *Store) dependencies(ctx context.Context, versionIDs []string) ([]store.DependencyRow, error) {
	query := `
		SELECT d.id, d.version_id, d.crate_id, d.req, d.optional, d.default_features,
			d.features, d.target, d.kind, d.explicit_name, c.name
		FROM dependencies d
		INNER JOIN crates c ON c.id = d.crate_id
		WHERE d.version_id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(versionIDs)), ",") + `)
		ORDER BY d.rowid`
	args := make([]any, len(versionIDs))
	for i, id := range versionIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying dependencies")
	}
	defer rows.Close()
	var deps []store.DependencyRow
	for rows.Next() {
		var d store.DependencyRow
		var features string
		var target, explicitName sql.NullString
		if err := rows.Scan(&d.ID, &d.VersionID, &d.CrateID, &d.Req, &d.Optional, &d.DefaultFeatures,
			&features, &target, &d.Kind, &explicitName, &d.CrateName); err != nil {
			return nil, errors.Wrap(err, "scanning dependency")
		}
		d.Target, d.ExplicitName = fromNull(target), fromNull(explicitName)
		if err := json.Unmarshal([]byte(features), &d.Features); err != nil {
			return nil, errors.Wrapf(err, "decoding features of dependency %s", d.ID)
		}
		deps = append(deps, d)
	}
	return deps, errors.Wrap(rows.Err(), "iterating dependencies")
}

// PutCrate implements store.Writer.
func (s *Store) PutCrate(ctx context.Context, c *store.Crate) error {
	store.EnsureID(&c.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crates (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, c.ID, c.Name)
	return errors.Wrap(err, "upserting crate")
}

// PutVersion implements store.Writer. Re-putting a version only updates the
// fields that may change after publication: yanked and checksum.
func (s *Store) PutVersion(ctx context.Context, v *store.Version) error {
	store.EnsureID(&v.ID)
	features, err := json.Marshal(v.Features)
	if err != nil {
		return errors.Wrap(err, "encoding features")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO versions (id, crate_id, num, created_at, checksum, yanked, links, rust_version, features)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			checksum = excluded.checksum,
			yanked = excluded.yanked`,
		v.ID, v.CrateID, v.Num, v.CreatedAt.UTC(), v.Checksum, v.Yanked, toNull(v.Links), toNull(v.RustVersion), string(features),
	)
	return errors.Wrap(err, "upserting version")
}

// PutDependency implements store.Writer.
func (s *Store) PutDependency(ctx context.Context, d *store.Dependency) error {
	store.EnsureID(&d.ID)
	features := d.Features
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(features)
	if err != nil {
		return errors.Wrap(err, "encoding features")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dependencies (id, version_id, crate_id, req, optional, default_features, features, target, kind, explicit_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.VersionID, d.CrateID, d.Req, d.Optional, d.DefaultFeatures, string(b), toNull(d.Target), int64(d.Kind), toNull(d.ExplicitName),
	)
	return errors.Wrap(err, "inserting dependency")
}

// DeleteVersions removes every version of a crate, cascading to their
// dependencies, while keeping the crate row.
func (s *Store) DeleteVersions(ctx context.Context, crateID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE crate_id = ?`, crateID)
	return errors.Wrap(err, "deleting versions")
}

// dsn merges the foreign key switch into the parameters of path and reports
// whether it names an in-memory database.
func dsn(path string) (name string, memory bool, err error) {
	base, rawQuery, _ := strings.Cut(path, "?")
	if base == "" {
		return "", false, errors.New("empty database path")
	}
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false, errors.Wrapf(err, "parsing parameters of %q", path)
	}
	params.Set("_foreign_keys", "on")
	memory = base == ":memory:" || params.Get("mode") == "memory"
	return base + "?" + params.Encode(), memory, nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
