// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/albumlab/shutterbus/model"
)

type MockService struct {
	mock.Mock
}

func (s *MockService) Push(_ context.Context, record model.ImageRecord) error {
	args := s.Called(record)
	return args.Error(0)
}

func (s *MockService) Get(_ context.Context, name string) (model.ImageRecord, error) {
	args := s.Called(name)
	return args.Get(0).(model.ImageRecord), args.Error(1)
}

func (s *MockService) Update(_ context.Context, name, description string) error {
	args := s.Called(name, description)
	return args.Error(0)
}

func (s *MockService) Delete(_ context.Context, name string) error {
	args := s.Called(name)
	return args.Error(0)
}
