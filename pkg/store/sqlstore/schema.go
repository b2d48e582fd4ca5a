// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package sqlstore

// Schema creates the tables the store reads. Names compare with the BINARY
// collation, so crate lookup is case-sensitive.
const Schema = `
CREATE TABLE IF NOT EXISTS crates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS versions (
    id TEXT PRIMARY KEY,
    crate_id TEXT NOT NULL,
    num TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    checksum TEXT NOT NULL,
    yanked BOOLEAN NOT NULL DEFAULT 0,
    links TEXT,
    rust_version TEXT,
    features TEXT NOT NULL DEFAULT '{}',
    FOREIGN KEY (crate_id) REFERENCES crates(id) ON DELETE CASCADE,
    UNIQUE(crate_id, num)
);

CREATE TABLE IF NOT EXISTS dependencies (
    id TEXT PRIMARY KEY,
    version_id TEXT NOT NULL,
    crate_id TEXT NOT NULL,
    req TEXT NOT NULL,
    optional BOOLEAN NOT NULL DEFAULT 0,
    default_features BOOLEAN NOT NULL DEFAULT 1,
    features TEXT NOT NULL DEFAULT '[]',
    target TEXT,
    kind INTEGER NOT NULL DEFAULT 0,
    explicit_name TEXT,
    FOREIGN KEY (version_id) REFERENCES versions(id) ON DELETE CASCADE,
    FOREIGN KEY (crate_id) REFERENCES crates(id)
);

CREATE INDEX IF NOT EXISTS idx_versions_crate_id ON versions(crate_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_version_id ON dependencies(version_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_crate_id ON dependencies(crate_id);
`
