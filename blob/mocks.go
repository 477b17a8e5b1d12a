// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) Get(_ context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(bucket, key)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}
