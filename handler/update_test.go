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
	"github.com/albumlab/shutterbus/store"
	"github.com/albumlab/shutterbus/store/inmem"
)

func descriptionEvent(name, description string) model.NormalizedEvent {
	return model.NormalizedEvent{
		Kind:        model.KindAttributeChanged,
		Type:        model.KindAttributeChanged.String(),
		ObjectKey:   name,
		Attributes:  map[string]string{"comment_type": "Description"},
		Description: description,
	}
}

func TestUpdateMetadata(t *testing.T) {
	records := inmem.NewInMem()
	h := NewUpdateMetadata(records, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, records.Put(ctx, model.ImageRecord{Name: "sunset.png", Bucket: "album"}))

	require.NoError(t, h.Handle(ctx, descriptionEvent("sunset.png", "a very nice sunset")))

	record, err := records.Get(ctx, "sunset.png")
	require.NoError(t, err)
	assert.Equal(t, "a very nice sunset", record.Description)

	// Reapplying the same change is idempotent.
	require.NoError(t, h.Handle(ctx, descriptionEvent("sunset.png", "a very nice sunset")))
}

func TestUpdateMetadataMissingRecord(t *testing.T) {
	h := NewUpdateMetadata(inmem.NewInMem(), zap.NewNop())

	err := h.Handle(context.Background(), descriptionEvent("ghost.png", "boo"))
	assert.ErrorIs(t, err, store.ErrRecordNotFound,
		"updates never create records")
}

func TestUpdateMetadataSkipsOtherCommentTypes(t *testing.T) {
	records := inmem.NewInMem()
	h := NewUpdateMetadata(records, zap.NewNop())

	evt := descriptionEvent("sunset.png", "five stars")
	evt.Attributes["comment_type"] = "Rating"

	assert.NoError(t, h.Handle(context.Background(), evt),
		"unrecognized comment types are skipped without touching the store")
}
