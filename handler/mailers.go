// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/notify"
)

// Notification subjects are fixed per path.
const (
	creationSubject   = "New image uploaded"
	quarantineSubject = "Image upload rejected"
	deletionSubject   = "Image has been deleted"
)

// Mailer is the shared base of the notification handlers. Sending is
// best-effort everywhere: a failed email is logged and swallowed so it can
// never cause reprocessing of an already successful data mutation.
type Mailer struct {
	dispatcher notify.Dispatcher
	config     notify.Config
	logger     *zap.Logger
	measures   notify.Measures
}

func NewMailer(dispatcher notify.Dispatcher, config notify.Config, logger *zap.Logger, measures notify.Measures) *Mailer {
	return &Mailer{
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		measures:   measures,
	}
}

func (m *Mailer) send(ctx context.Context, subject, message string) {
	email := notify.NewEmail(m.config, subject, message)
	outcome := notify.SuccessOutcome
	if err := m.dispatcher.Send(ctx, email); err != nil {
		outcome = notify.FailureOutcome
		m.logger.Error("failed to send notification",
			zap.String("subject", subject),
			zap.Error(err))
	}
	if m.measures.Sends != nil {
		m.measures.Sends.WithLabelValues(outcome).Inc()
	}
}

// CreationMailer announces a newly uploaded object.
type CreationMailer struct {
	*Mailer
}

func NewCreationMailer(m *Mailer) *CreationMailer {
	return &CreationMailer{Mailer: m}
}

func (h *CreationMailer) Handle(ctx context.Context, evt model.NormalizedEvent) error {
	message := fmt.Sprintf("Image %s has been received in bucket %s.", evt.ObjectKey, evt.Bucket)
	h.send(ctx, creationSubject, message)
	return nil
}

// QuarantineMailer reports an envelope that exhausted its retry budget. The
// body is synthesized from the static album name, not the original event:
// the event already failed processing and its contents are suspect.
type QuarantineMailer struct {
	*Mailer
}

func NewQuarantineMailer(m *Mailer) *QuarantineMailer {
	return &QuarantineMailer{Mailer: m}
}

func (h *QuarantineMailer) Handle(ctx context.Context, _ model.NormalizedEvent) error {
	h.send(ctx, quarantineSubject, "An image could not be processed and has been rejected.")
	return nil
}

// DeletionMailer confirms metadata record deletions observed on the change
// stream. Errors are logged and swallowed so the stream cursor always
// advances.
type DeletionMailer struct {
	*Mailer
}

func NewDeletionMailer(m *Mailer) *DeletionMailer {
	return &DeletionMailer{Mailer: m}
}

// HandleChanges consumes one ordered batch of change records. Only remove
// mutations are relevant; all other operations are observed and skipped.
func (h *DeletionMailer) HandleChanges(ctx context.Context, records []model.ChangeRecord) error {
	for _, record := range records {
		if record.Operation != model.ChangeRemove {
			continue
		}
		h.send(ctx, deletionSubject, "Image has been successfully deleted.")
	}
	return nil
}
