// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package index defines the records of the crates.io registry index and their line-delimited encoding.
package index

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
)

// FormatVersionFeatures2 is the "v" value of a record that carries a features2 map.
const FormatVersionFeatures2 uint32 = 2

// Crate is a single line of an index file, describing one published version.
type Crate struct {
	Name string       `json:"name"`
	Vers string       `json:"vers"`
	Deps []Dependency `json:"deps"`
	// Cksum is the hex SHA256 of the .crate archive.
	Cksum    string              `json:"cksum"`
	Features map[string][]string `json:"features"`
	// Features2 holds the features that use syntax older Cargo releases cannot
	// parse. It is omitted entirely when empty.
	Features2   map[string][]string `json:"features2,omitempty"`
	Yanked      *bool               `json:"yanked"`
	Links       *string             `json:"links"`
	RustVersion *string             `json:"rust_version,omitempty"`
	V           *uint32             `json:"v,omitempty"`
}

// Dependency is a single entry of a Crate's deps.
type Dependency struct {
	// Name is the name used in code: the rename if there is one.
	Name            string          `json:"name"`
	Req             string          `json:"req"`
	Features        []string        `json:"features"`
	Optional        bool            `json:"optional"`
	DefaultFeatures bool            `json:"default_features"`
	Target          *string         `json:"target"`
	Kind            *DependencyKind `json:"kind"`
	// Package is the registered crate name, set only when Name is a rename.
	Package *string `json:"package,omitempty"`
}

// DependencyKind is the section of the manifest a dependency was declared in.
type DependencyKind int

const (
	KindNormal DependencyKind = iota
	KindBuild
	KindDev
)

var kindNames = [...]string{"normal", "build", "dev"}

func (k DependencyKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k DependencyKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, errors.Errorf("unknown dependency kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DependencyKind) UnmarshalText(b []byte) error {
	i := slices.Index(kindNames[:], string(b))
	if i < 0 {
		return errors.Errorf("unknown dependency kind %q", string(b))
	}
	*k = DependencyKind(i)
	return nil
}

// Compare orders dependencies field by field in declaration order. Absent
// optional values sort before present ones.
func (d Dependency) Compare(o Dependency) int {
	if c := cmp.Compare(d.Name, o.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Req, o.Req); c != 0 {
		return c
	}
	if c := slices.Compare(d.Features, o.Features); c != 0 {
		return c
	}
	if c := compareBool(d.Optional, o.Optional); c != 0 {
		return c
	}
	if c := compareBool(d.DefaultFeatures, o.DefaultFeatures); c != 0 {
		return c
	}
	if c := compareOption(d.Target, o.Target); c != 0 {
		return c
	}
	if c := compareOption(d.Kind, o.Kind); c != 0 {
		return c
	}
	return compareOption(d.Package, o.Package)
}

// SortDependencies sorts deps in place by Dependency.Compare.
func SortDependencies(deps []Dependency) {
	slices.SortStableFunc(deps, Dependency.Compare)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareOption[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}
