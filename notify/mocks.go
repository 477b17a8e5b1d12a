// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(_ context.Context, email Email) error {
	args := m.Called(email)
	return args.Error(0)
}
