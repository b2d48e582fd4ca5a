// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitFeatures(t *testing.T) {
	testCases := []struct {
		name             string
		features         map[string][]string
		expectedLegacy   map[string][]string
		expectedExtended map[string][]string
	}{
		{
			name:             "Empty",
			features:         nil,
			expectedLegacy:   map[string][]string{},
			expectedExtended: map[string][]string{},
		},
		{
			name: "Legacy only",
			features: map[string][]string{
				"default": {"std", "serde/std"},
				"std":     {},
			},
			expectedLegacy: map[string][]string{
				"default": {"std", "serde/std"},
				"std":     {},
			},
			expectedExtended: map[string][]string{},
		},
		{
			name: "Namespaced dependency",
			features: map[string][]string{
				"default": {"std"},
				"serde":   {"dep:serde"},
			},
			expectedLegacy:   map[string][]string{"default": {"std"}},
			expectedExtended: map[string][]string{"serde": {"dep:serde"}},
		},
		{
			name: "Weak dependency feature",
			features: map[string][]string{
				"std": {"serde?/std"},
			},
			expectedLegacy:   map[string][]string{},
			expectedExtended: map[string][]string{"std": {"serde?/std"}},
		},
		{
			name: "Transitive move",
			features: map[string][]string{
				"a": {"b"},
				"b": {"c"},
				"c": {"dep:serde"},
				"d": {"e"},
				"e": {},
			},
			expectedLegacy: map[string][]string{
				"d": {"e"},
				"e": {},
			},
			expectedExtended: map[string][]string{
				"a": {"b"},
				"b": {"c"},
				"c": {"dep:serde"},
			},
		},
		{
			name:             "Nil values become empty lists",
			features:         map[string][]string{"std": nil},
			expectedLegacy:   map[string][]string{"std": {}},
			expectedExtended: map[string][]string{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			legacy, extended := SplitFeatures(tc.features)
			if diff := cmp.Diff(tc.expectedLegacy, legacy); diff != "" {
				t.Errorf("legacy mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.expectedExtended, extended); diff != "" {
				t.Errorf("extended mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitFeaturesIterationLimit(t *testing.T) {
	// A chain longer than the pass limit leaves its far end in legacy.
	const n = splitIterationLimit + 5
	features := map[string][]string{"f0": {"dep:x"}}
	for i := 1; i <= n; i++ {
		features[fmt.Sprintf("f%d", i)] = []string{fmt.Sprintf("f%d", i-1)}
	}
	legacy, extended := SplitFeatures(features)
	if len(extended) != splitIterationLimit+1 {
		t.Errorf("len(extended) = %d, want %d", len(extended), splitIterationLimit+1)
	}
	if len(legacy)+len(extended) != len(features) {
		t.Errorf("features lost: %d + %d != %d", len(legacy), len(extended), len(features))
	}
	if _, ok := legacy[fmt.Sprintf("f%d", n)]; !ok {
		t.Errorf("f%d moved past the iteration limit", n)
	}
}
