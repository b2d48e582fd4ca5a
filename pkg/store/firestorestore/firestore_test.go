// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package firestorestore

import (
	"context"
	"fmt"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/crates-index/internal/firestoretest"
	"github.com/google/crates-index/pkg/store"
	"github.com/google/crates-index/pkg/store/storetest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestBatches(t *testing.T) {
	ids := func(n int) []string {
		var out []string
		for i := 0; i < n; i++ {
			out = append(out, fmt.Sprint(i))
		}
		return out
	}
	testCases := []struct {
		name     string
		ids      []string
		size     int
		expected []int
	}{
		{"Empty", nil, 30, nil},
		{"Single batch", ids(3), 30, []int{3}},
		{"Exact", ids(60), 30, []int{30, 30}},
		{"Remainder", ids(61), 30, []int{30, 30, 1}},
		{"Duplicates dropped", []string{"a", "b", "a", "c", "b"}, 2, []int{2, 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sizes []int
			for _, b := range batches(tc.ids, tc.size) {
				sizes = append(sizes, len(b))
			}
			if diff := cmp.Diff(tc.expected, sizes); diff != "" {
				t.Errorf("batch sizes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore(t *testing.T) {
	firestoretest.Emulator(context.Background(), t)
	storetest.Run(t, func(t *testing.T) store.Store {
		// A fresh project per test keeps emulator data isolated.
		client, err := firestore.NewClient(context.Background(), "test-"+uuid.NewString()[:8])
		if err != nil {
			t.Fatalf("firestore.NewClient(): %v", err)
		}
		t.Cleanup(func() { client.Close() })
		return New(client)
	})
}

func TestOpenEmptyProject(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Error("Open(\"\") succeeded, want error")
	}
}
