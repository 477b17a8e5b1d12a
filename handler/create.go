// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package handler holds the business logic reacting to delivered events.
// Every handler is idempotent under at-least-once delivery.
package handler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/blob"
	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
)

// allowedSuffixes is the set of image types the pipeline accepts.
var allowedSuffixes = []string{".jpeg", ".png"}

// CreateImage validates a newly created object and records its metadata.
// All failures propagate: an unsupported type rides the retry path into
// quarantine, and a store or blob failure triggers redelivery.
type CreateImage struct {
	blobs   blob.Reader
	records store.S
	logger  *zap.Logger
}

func NewCreateImage(blobs blob.Reader, records store.S, logger *zap.Logger) *CreateImage {
	return &CreateImage{
		blobs:   blobs,
		records: records,
		logger:  logger,
	}
}

func (h *CreateImage) Handle(ctx context.Context, evt model.NormalizedEvent) error {
	if !hasAllowedSuffix(evt.ObjectKey) {
		return ValidationError{Message: fmt.Sprintf("unsupported image type: %q", evt.ObjectKey)}
	}

	// Confirm the object is actually retrievable before recording it. An
	// unreadable object propagates and retries rather than being skipped.
	if _, err := h.blobs.Get(ctx, evt.Bucket, evt.ObjectKey); err != nil {
		return fmt.Errorf("confirming object %s/%s: %w", evt.Bucket, evt.ObjectKey, err)
	}

	record := model.ImageRecord{Name: evt.ObjectKey, Bucket: evt.Bucket}
	if err := h.records.Put(ctx, record); err != nil {
		return err
	}

	h.logger.Info("image recorded",
		zap.String("name", record.Name),
		zap.String("bucket", record.Bucket))
	return nil
}

func hasAllowedSuffix(key string) bool {
	for _, suffix := range allowedSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
