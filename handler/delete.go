// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
)

// DeleteSync removes the metadata record for a deleted object. Store
// failures propagate so the transport redelivers; there is no silent drop.
type DeleteSync struct {
	records store.S
	logger  *zap.Logger
}

func NewDeleteSync(records store.S, logger *zap.Logger) *DeleteSync {
	return &DeleteSync{
		records: records,
		logger:  logger,
	}
}

func (h *DeleteSync) Handle(ctx context.Context, evt model.NormalizedEvent) error {
	if err := h.records.Delete(ctx, evt.ObjectKey); err != nil {
		return err
	}
	h.logger.Info("image record deleted", zap.String("name", evt.ObjectKey))
	return nil
}
