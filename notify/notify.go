// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package notify formats and sends the pipeline's notification emails.
package notify

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the notification addresses. All fields are required; a
// missing value is a fatal startup error, never a runtime one.
type Config struct {
	// From is the verified sender address.
	From string `validate:"required,email"`

	// To receives every pipeline notification.
	To string `validate:"required,email"`

	// Region is the transport region notifications are sent from.
	Region string `validate:"required"`
}

// Validate reports the first missing or malformed field.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid mailer config: %w", err)
	}
	return nil
}

// Email is one outbound notification message.
type Email struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Dispatcher sends notification emails. Callers on best-effort paths must
// log and swallow errors rather than propagate them.
type Dispatcher interface {
	Send(ctx context.Context, email Email) error
}
