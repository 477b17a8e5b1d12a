// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
	"github.com/albumlab/shutterbus/store/metric"
)

const defaultTable = "ImagesTable"

type Config struct {
	Table    string
	Endpoint string
	Region   string

	// AccessKey/SecretKey force static credentials, which is mostly useful
	// against local endpoints. Left empty, the default provider chain runs.
	AccessKey string
	SecretKey string
}

// DynamoClient implements store.S on top of the DAO, layering metrics onto
// every operation.
type DynamoClient struct {
	client   service
	config   Config
	logger   *zap.Logger
	measures metric.Measures
}

func NewDynamoClient(config Config, measures metric.Measures, logger *zap.Logger) (store.S, error) {
	if config.Table == "" {
		config.Table = defaultTable
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}
	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, err
	}

	c := dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})

	return &DynamoClient{
		client:   &executor{c: c, tableName: config.Table},
		config:   config,
		logger:   logger,
		measures: measures,
	}, nil
}

func (s *DynamoClient) Put(ctx context.Context, record model.ImageRecord) error {
	err := s.client.Push(ctx, record)
	s.count(store.InsertType, err)
	return err
}

func (s *DynamoClient) Get(ctx context.Context, name string) (model.ImageRecord, error) {
	record, err := s.client.Get(ctx, name)
	s.count(store.ReadType, err)
	return record, err
}

func (s *DynamoClient) UpdateDescription(ctx context.Context, name, description string) error {
	err := s.client.Update(ctx, name, description)
	s.count(store.UpdateType, err)
	return err
}

func (s *DynamoClient) Delete(ctx context.Context, name string) error {
	err := s.client.Delete(ctx, name)
	s.count(store.DeleteType, err)
	return err
}

func (s *DynamoClient) count(queryType string, err error) {
	if err != nil {
		if s.measures.QueryFailureCount != nil {
			s.measures.QueryFailureCount.WithLabelValues(queryType).Inc()
		}
		return
	}
	if s.measures.QuerySuccessCount != nil {
		s.measures.QuerySuccessCount.WithLabelValues(queryType).Inc()
	}
}
