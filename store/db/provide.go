// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package db selects and builds the configured metadata store backend.
package db

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/store"
	"github.com/albumlab/shutterbus/store/dynamodb"
	"github.com/albumlab/shutterbus/store/inmem"
	"github.com/albumlab/shutterbus/store/metric"
)

const (
	DynamoDB = "dynamo"
	InMemory = "inmem"
)

type Config struct {
	// Backend picks the store implementation: "dynamo" (default) or
	// "inmem" for local development.
	Backend string

	Dynamo dynamodb.Config
}

func Provide(config Config, measures metric.Measures, logger *zap.Logger) (store.S, error) {
	switch config.Backend {
	case DynamoDB, "":
		return dynamodb.NewDynamoClient(config.Dynamo, measures, logger)
	case InMemory:
		return inmem.NewInMem(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", config.Backend)
	}
}
