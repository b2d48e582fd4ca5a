// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package iterx adapts Next()-style iterators, such as Firestore's, to range
// functions.
package iterx

import (
	"iter"

	"github.com/pkg/errors"
)

type nexter[T any] interface {
	Next() (T, error)
}

// ToSeq2 yields the values of it until it returns done. Any other error is
// yielded once and ends the sequence.
func ToSeq2[T any](it nexter[T], done error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			val, err := it.Next()
			if errors.Is(err, done) {
				return
			}
			if !yield(val, err) || err != nil {
				return
			}
		}
	}
}
