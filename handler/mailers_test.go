// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/notify"
)

func testMailerConfig() notify.Config {
	return notify.Config{
		From:   "noreply@albumlab.dev",
		To:     "owner@albumlab.dev",
		Region: "us-east-1",
	}
}

func TestCreationMailer(t *testing.T) {
	dispatcher := new(notify.MockDispatcher)
	h := NewCreationMailer(NewMailer(dispatcher, testMailerConfig(), zap.NewNop(), notify.Measures{}))

	dispatcher.On("Send", mock.MatchedBy(func(email notify.Email) bool {
		return email.Subject == creationSubject &&
			email.From == "noreply@albumlab.dev" &&
			email.To == "owner@albumlab.dev"
	})).Return(nil).Once()

	require.NoError(t, h.Handle(context.Background(), createdEvent("sunset.png")))
	dispatcher.AssertExpectations(t)
}

func TestMailersSwallowSendFailures(t *testing.T) {
	dispatcher := new(notify.MockDispatcher)
	dispatcher.On("Send", mock.Anything).Return(errors.New("mail relay down"))

	base := NewMailer(dispatcher, testMailerConfig(), zap.NewNop(), notify.Measures{})

	assert.NoError(t, NewCreationMailer(base).Handle(context.Background(), createdEvent("a.png")),
		"notification failures must never fail the pipeline")
	assert.NoError(t, NewQuarantineMailer(base).Handle(context.Background(), model.NormalizedEvent{}))
	assert.NoError(t, NewDeletionMailer(base).HandleChanges(context.Background(), []model.ChangeRecord{
		{Operation: model.ChangeRemove, Key: "gone.jpeg"},
	}))
}

func TestDeletionMailerOnlyReactsToRemoves(t *testing.T) {
	dispatcher := new(notify.MockDispatcher)
	h := NewDeletionMailer(NewMailer(dispatcher, testMailerConfig(), zap.NewNop(), notify.Measures{}))

	dispatcher.On("Send", mock.MatchedBy(func(email notify.Email) bool {
		return email.Subject == deletionSubject
	})).Return(nil).Twice()

	err := h.HandleChanges(context.Background(), []model.ChangeRecord{
		{Operation: model.ChangeInsert, Key: "new.png"},
		{Operation: model.ChangeRemove, Key: "a.jpeg"},
		{Operation: model.ChangeModify, Key: "edited.png"},
		{Operation: model.ChangeRemove, Key: "b.jpeg"},
	})
	require.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestQuarantineMailerBody(t *testing.T) {
	dispatcher := new(notify.MockDispatcher)
	h := NewQuarantineMailer(NewMailer(dispatcher, testMailerConfig(), zap.NewNop(), notify.Measures{}))

	var sent notify.Email
	dispatcher.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(notify.Email)
	}).Return(nil).Once()

	require.NoError(t, h.Handle(context.Background(), model.NormalizedEvent{ObjectKey: "poison.png"}))
	assert.Equal(t, quarantineSubject, sent.Subject)
	assert.Contains(t, sent.HTMLBody, notify.SenderName)
	dispatcher.AssertExpectations(t)
}
