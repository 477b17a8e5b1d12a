// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package notify

import "fmt"

// SenderName is the display name stamped into every notification body.
const SenderName = "The Photo Album"

// ContactDetails fills the sender block of a notification body.
type ContactDetails struct {
	Name    string
	Email   string
	Message string
}

const htmlBodyFormat = `
    <html>
      <body>
        <h2>Sent from: </h2>
        <ul>
          <li style="font-size:18px">👤 <b>%s</b></li>
          <li style="font-size:18px">✉️ <b>%s</b></li>
        </ul>
        <p style="font-size:18px">%s</p>
      </body>
    </html>
  `

// HTMLBody renders the shared notification body.
func HTMLBody(details ContactDetails) string {
	return fmt.Sprintf(htmlBodyFormat, details.Name, details.Email, details.Message)
}

// NewEmail assembles a notification addressed per the config, with the
// standard body wrapped around the given message.
func NewEmail(config Config, subject, message string) Email {
	return Email{
		From:    config.From,
		To:      config.To,
		Subject: subject,
		HTMLBody: HTMLBody(ContactDetails{
			Name:    SenderName,
			Email:   config.From,
			Message: message,
		}),
	}
}
