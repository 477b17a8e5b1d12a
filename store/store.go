// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/albumlab/shutterbus/model"
)

const (
	// TypeLabel is for labeling metrics; if there is a single metric for
	// successful queries, the TypeLabel and corresponding type can be used
	// when incrementing the metric.
	TypeLabel  = "type"
	InsertType = "insert"
	ReadType   = "read"
	UpdateType = "update"
	DeleteType = "delete"
)

// S is the metadata store client. Records are keyed by image name; every
// operation touches a single key, so no multi-key transactions are needed.
type S interface {
	// Put creates or overwrites the record. Overwrites are benign: replaying
	// a creation event writes identical field values.
	Put(ctx context.Context, record model.ImageRecord) error

	// Get returns the record, or ErrRecordNotFound.
	Get(ctx context.Context, name string) (model.ImageRecord, error)

	// UpdateDescription sets the description of an existing record and
	// fails with ErrRecordNotFound when there is none.
	UpdateDescription(ctx context.Context, name, description string) error

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, name string) error
}
