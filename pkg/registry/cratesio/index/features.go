// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"slices"
	"strings"
)

// splitIterationLimit bounds the propagation passes of SplitFeatures.
const splitIterationLimit = 100

// SplitFeatures partitions a feature map into the features older Cargo
// releases can read and the ones that must go in features2.
//
// A feature belongs in features2 if any of its values uses the "dep:" or
// "?/" syntax, or if it enables another feature that belongs in features2.
func SplitFeatures(features map[string][]string) (legacy, extended map[string][]string) {
	legacy = make(map[string][]string)
	extended = make(map[string][]string)
	for name, values := range features {
		if values == nil {
			values = []string{}
		}
		if slices.ContainsFunc(values, usesExtendedSyntax) {
			extended[name] = values
		} else {
			legacy[name] = values
		}
	}
	enablesExtended := func(v string) bool {
		_, ok := extended[v]
		return ok
	}
	for range splitIterationLimit {
		// Each pass tests every legacy feature against the extended set as it
		// stood at the start of the pass.
		var move []string
		for name, values := range legacy {
			if slices.ContainsFunc(values, enablesExtended) {
				move = append(move, name)
			}
		}
		if len(move) == 0 {
			break
		}
		for _, name := range move {
			extended[name] = legacy[name]
			delete(legacy, name)
		}
	}
	return legacy, extended
}

func usesExtendedSyntax(v string) bool {
	return strings.HasPrefix(v, "dep:") || strings.Contains(v, "?/")
}
