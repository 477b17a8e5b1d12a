// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package ses

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/albumlab/shutterbus/notify"
)

const charsetUTF8 = "UTF-8"

// client captures the methods of interest from the SES API. This should
// help mock API calls as well.
type client interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Dispatcher implements notify.Dispatcher over SES.
type Dispatcher struct {
	c client
}

func NewDispatcher(c *ses.Client) *Dispatcher {
	return &Dispatcher{c: c}
}

func (d *Dispatcher) Send(ctx context.Context, email notify.Email) error {
	_, err := d.c.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(email.From),
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String(charsetUTF8),
				Data:    aws.String(email.Subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String(charsetUTF8),
					Data:    aws.String(email.HTMLBody),
				},
			},
		},
	})
	return err
}
