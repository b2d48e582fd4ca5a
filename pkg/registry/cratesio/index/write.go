// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrInvalidUTF8 is the cause of an EncodeError for a value that is not text.
var ErrInvalidUTF8 = errors.New("not valid UTF-8")

// maxLineSize bounds a single record when reading. The largest crates.io
// entries are a few hundred KiB.
const maxLineSize = 16 << 20

// WriteCrates writes crates to w as an index file: one JSON object per line,
// in the order given.
func WriteCrates(w io.Writer, crates []Crate) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	// Cargo hashes and diffs index lines byte for byte, so keep '<', '>' and '&' literal.
	enc.SetEscapeHTML(false)
	for i := range crates {
		c := &crates[i]
		if err := checkText(c); err != nil {
			return err
		}
		if err := enc.Encode(c); err != nil {
			return &EncodeError{Name: c.Name, Vers: c.Vers, Err: err}
		}
	}
	return errors.Wrap(bw.Flush(), "flushing index records")
}

// ReadCrates parses an index file. Blank lines are ignored.
func ReadCrates(r io.Reader) ([]Crate, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	var crates []Crate
	for line := 1; s.Scan(); line++ {
		b := bytes.TrimSpace(s.Bytes())
		if len(b) == 0 {
			continue
		}
		var c Crate
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, errors.Wrapf(err, "parsing index line %d", line)
		}
		crates = append(crates, c)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading index")
	}
	return crates, nil
}

// checkText rejects strings that encoding/json would silently rewrite.
func checkText(c *Crate) error {
	fail := func(field string) error {
		return &EncodeError{Name: c.Name, Vers: c.Vers, Field: field, Err: ErrInvalidUTF8}
	}
	switch {
	case !utf8.ValidString(c.Name):
		return fail("name")
	case !utf8.ValidString(c.Vers):
		return fail("vers")
	case !utf8.ValidString(c.Cksum):
		return fail("cksum")
	}
	if c.Links != nil && !utf8.ValidString(*c.Links) {
		return fail("links")
	}
	if c.RustVersion != nil && !utf8.ValidString(*c.RustVersion) {
		return fail("rust_version")
	}
	if field := checkFeatures("features", c.Features); field != "" {
		return fail(field)
	}
	if field := checkFeatures("features2", c.Features2); field != "" {
		return fail(field)
	}
	for i, d := range c.Deps {
		prefix := fmt.Sprintf("deps[%d].", i)
		switch {
		case !utf8.ValidString(d.Name):
			return fail(prefix + "name")
		case !utf8.ValidString(d.Req):
			return fail(prefix + "req")
		case d.Target != nil && !utf8.ValidString(*d.Target):
			return fail(prefix + "target")
		case d.Package != nil && !utf8.ValidString(*d.Package):
			return fail(prefix + "package")
		}
		for j, f := range d.Features {
			if !utf8.ValidString(f) {
				return fail(fmt.Sprintf("%sfeatures[%d]", prefix, j))
			}
		}
	}
	return nil
}

func checkFeatures(field string, features map[string][]string) string {
	for _, name := range slices.Sorted(maps.Keys(features)) {
		if !utf8.ValidString(name) {
			return field
		}
		for i, v := range features[name] {
			if !utf8.ValidString(v) {
				return fmt.Sprintf("%s.%s[%d]", field, name, i)
			}
		}
	}
	return ""
}
