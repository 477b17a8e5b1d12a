// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package handler

// ValidationError is a business-rule rejection, e.g. an unsupported file
// type. It propagates so the delivery transport's retry and dead-letter
// machinery engages.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
