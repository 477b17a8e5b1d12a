// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store/inmem"
)

func TestDeleteSync(t *testing.T) {
	records := inmem.NewInMem()
	h := NewDeleteSync(records, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, records.Put(ctx, model.ImageRecord{Name: "old.jpeg", Bucket: "album"}))

	evt := model.NormalizedEvent{
		Kind:      model.KindObjectRemoved,
		Type:      "ObjectRemoved:Delete",
		ObjectKey: "old.jpeg",
	}
	require.NoError(t, h.Handle(ctx, evt))
	assert.Zero(t, records.Len())

	// Redelivery of the same deletion is a no-op, not an error.
	assert.NoError(t, h.Handle(ctx, evt))
}
