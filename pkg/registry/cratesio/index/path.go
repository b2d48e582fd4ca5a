// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"path"
	"strings"
)

// EntryPath computes the path of a crate's file relative to the index root.
//
// Names are lowercased; one to three character names live under "1", "2"
// and "3/<first char>", longer names under their first two pairs of characters.
func EntryPath(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 0:
		return ""
	case 1:
		return path.Join("1", name)
	case 2:
		return path.Join("2", name)
	case 3:
		return path.Join("3", name[:1], name)
	default:
		return path.Join(name[:2], name[2:4], name)
	}
}
