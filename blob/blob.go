// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package blob is the thin boundary to the object store the pipeline reacts
// to. Only reads are needed: the pipeline never writes objects.
package blob

import (
	"context"
	"errors"
)

// ErrObjectNotFound marks reads of an object that does not exist.
var ErrObjectNotFound = errors.New("object does not exist")

// Reader fetches object contents by bucket and fully decoded key.
type Reader interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}
