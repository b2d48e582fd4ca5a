// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package indexgen

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/crates-index/internal/semver"
	"github.com/google/crates-index/pkg/store"
)

// versionKey orders versions by publication time, then by SemVer precedence.
type versionKey struct {
	created time.Time
	// parsed is nil when the version string is not valid SemVer.
	parsed *semver.Semver
	num    string
}

func keyOf(v store.Version) versionKey {
	k := versionKey{created: v.CreatedAt, num: v.Num}
	if sv, err := semver.Parse(v.Num); err == nil {
		k.parsed = &sv
	}
	return k
}

// compareKeys is a total order over version keys:
//  1. earlier creation time first;
//  2. at equal times, an unparseable version before any parseable one, and
//     parseable versions by SemVer precedence;
//  3. remaining ties by version string.
//
// Rule 2 matches how the index has always been ordered, even though sorting
// invalid versions last would arguably read better.
func compareKeys(a, b versionKey) int {
	if c := a.created.Compare(b.created); c != 0 {
		return c
	}
	switch {
	case a.parsed == nil && b.parsed != nil:
		return -1
	case a.parsed != nil && b.parsed == nil:
		return 1
	case a.parsed != nil && b.parsed != nil:
		if c := semver.Compare(*a.parsed, *b.parsed); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.num, b.num)
}

// SortVersions sorts versions in index order. Keys are computed once per version.
func SortVersions(versions []store.Version) {
	type keyed struct {
		key versionKey
		v   store.Version
	}
	ks := make([]keyed, len(versions))
	for i, v := range versions {
		ks[i] = keyed{keyOf(v), v}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int { return compareKeys(a.key, b.key) })
	for i := range ks {
		versions[i] = ks[i].v
	}
}
