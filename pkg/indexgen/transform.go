// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package indexgen

import (
	"slices"

	"github.com/google/crates-index/pkg/registry/cratesio/index"
	"github.com/google/crates-index/pkg/store"
)

// Transform builds the index record of one version of the named crate from
// the version and the dependency rows it owns.
func Transform(crateName string, v store.Version, rows []store.DependencyRow) index.Crate {
	deps := make([]index.Dependency, 0, len(rows))
	for _, row := range rows {
		deps = append(deps, indexDependency(row))
	}
	index.SortDependencies(deps)

	features, features2 := index.SplitFeatures(v.Features)
	yanked := v.Yanked
	c := index.Crate{
		Name:        crateName,
		Vers:        v.Num,
		Deps:        deps,
		Cksum:       v.Checksum,
		Features:    features,
		Yanked:      &yanked,
		Links:       clonePtr(v.Links),
		RustVersion: clonePtr(v.RustVersion),
	}
	// Readers that predate features2 must see exactly the old shape.
	if len(features2) > 0 {
		format := index.FormatVersionFeatures2
		c.Features2 = features2
		c.V = &format
	}
	return c
}

func indexDependency(row store.DependencyRow) index.Dependency {
	// With a rename, the manifest key is what code imports and the registered
	// name tells Cargo which crate to fetch.
	name := row.CrateName
	var pkg *string
	if row.ExplicitName != nil {
		name = *row.ExplicitName
		registered := row.CrateName
		pkg = &registered
	}
	features := slices.Clone(row.Features)
	if features == nil {
		features = []string{}
	}
	kind := row.Kind
	return index.Dependency{
		Name:            name,
		Req:             row.Req,
		Features:        features,
		Optional:        row.Optional,
		DefaultFeatures: row.DefaultFeatures,
		Target:          clonePtr(row.Target),
		Kind:            &kind,
		Package:         pkg,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
