// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound marks operations against a record that does not exist.
var ErrRecordNotFound = errors.New("record does not exist")

// RecordOperationError wraps a store failure with the record and operation
// it happened on.
type RecordOperationError struct {
	Err       error
	Name      string
	Operation string
}

func (e RecordOperationError) Error() string {
	return fmt.Sprintf("%s failed for record %q: %v", e.Operation, e.Name, e.Err)
}

func (e RecordOperationError) Unwrap() error {
	return e.Err
}
