// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
)

const descriptionAttribute = "Description"

// UpdateMetadata applies a description change to an existing record. An
// absent record is an error; the record is never created here.
type UpdateMetadata struct {
	records store.S
	logger  *zap.Logger
}

func NewUpdateMetadata(records store.S, logger *zap.Logger) *UpdateMetadata {
	return &UpdateMetadata{
		records: records,
		logger:  logger,
	}
}

func (h *UpdateMetadata) Handle(ctx context.Context, evt model.NormalizedEvent) error {
	if evt.Attributes["comment_type"] != descriptionAttribute {
		return nil
	}

	if _, err := h.records.Get(ctx, evt.ObjectKey); err != nil {
		return err
	}
	if err := h.records.UpdateDescription(ctx, evt.ObjectKey, evt.Description); err != nil {
		return err
	}

	h.logger.Info("image description updated", zap.String("name", evt.ObjectKey))
	return nil
}
