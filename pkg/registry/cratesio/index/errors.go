// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"
)

// EncodeError indicates a record could not be written as index text.
type EncodeError struct {
	// Name and Vers identify the offending record.
	Name string
	Vers string
	// Field is the JSON path of the value that failed, e.g. "deps[2].req".
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encoding %s@%s: field %s: %v", e.Name, e.Vers, e.Field, e.Err)
	}
	return fmt.Sprintf("encoding %s@%s: %v", e.Name, e.Vers, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
