// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/envelope"
	"github.com/albumlab/shutterbus/model"
)

const defaultRecordLimit = 5

var errNoStreamArn = errors.New("a change stream ARN is required")

// StreamsAPI captures the methods of interest from the DynamoDB Streams API.
// This should help mock API calls as well.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, in *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, in *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, in *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// SourceConfig configures the DynamoDB Streams source.
type SourceConfig struct {
	// StreamArn identifies the table's change stream.
	StreamArn string

	// RecordLimit caps how many records one poll may return.
	// (Optional). Defaults to 5.
	RecordLimit int32
}

type shardCursor struct {
	shardID  string
	iterator string
	pending  string
}

// DynamoSource tails a DynamoDB stream shard by shard from TRIM_HORIZON.
// The cursor is the shard iterator: it only advances on Commit, so records
// handed out by an uncommitted Next are read again on the next poll.
type DynamoSource struct {
	client StreamsAPI
	config SourceConfig
	logger *zap.Logger

	shards []*shardCursor
}

func NewDynamoSource(config SourceConfig, client StreamsAPI, logger *zap.Logger) (*DynamoSource, error) {
	if config.StreamArn == "" {
		return nil, errNoStreamArn
	}
	if config.RecordLimit <= 0 {
		config.RecordLimit = defaultRecordLimit
	}
	return &DynamoSource{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

func (s *DynamoSource) Next(ctx context.Context) ([]model.ChangeRecord, error) {
	if len(s.shards) == 0 {
		if err := s.loadShards(ctx); err != nil {
			return nil, err
		}
	}

	var out []model.ChangeRecord
	for _, shard := range s.shards {
		if shard.iterator == "" {
			continue
		}
		resp, err := s.client.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: aws.String(shard.iterator),
			Limit:         aws.Int32(s.config.RecordLimit),
		})
		if err != nil {
			return nil, fmt.Errorf("reading shard %s: %w", shard.shardID, err)
		}

		shard.pending = aws.ToString(resp.NextShardIterator)
		for _, record := range resp.Records {
			normalized, err := envelope.NormalizeStreamRecord(lambdaRecord(record))
			if err != nil {
				s.logger.Warn("skipping unusable stream record", zap.Error(err))
				continue
			}
			out = append(out, normalized)
		}
	}
	return out, nil
}

// Commit advances every shard cursor past the records returned by the last
// Next.
func (s *DynamoSource) Commit(context.Context) error {
	for _, shard := range s.shards {
		if shard.pending != "" || shard.iterator != "" {
			shard.iterator = shard.pending
		}
	}
	return nil
}

func (s *DynamoSource) loadShards(ctx context.Context) error {
	resp, err := s.client.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: aws.String(s.config.StreamArn),
	})
	if err != nil {
		return fmt.Errorf("describing stream: %w", err)
	}

	for _, shard := range resp.StreamDescription.Shards {
		iter, err := s.client.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
			StreamArn:         aws.String(s.config.StreamArn),
			ShardId:           shard.ShardId,
			ShardIteratorType: types.ShardIteratorTypeTrimHorizon,
		})
		if err != nil {
			return fmt.Errorf("opening shard %s: %w", aws.ToString(shard.ShardId), err)
		}
		s.shards = append(s.shards, &shardCursor{
			shardID:  aws.ToString(shard.ShardId),
			iterator: aws.ToString(iter.ShardIterator),
		})
	}
	return nil
}

// lambdaRecord converts an SDK stream record to the lambda events shape so
// the envelope normalizer stays the single place change records are
// interpreted.
func lambdaRecord(record types.Record) events.DynamoDBEventRecord {
	out := events.DynamoDBEventRecord{EventName: string(record.EventName)}
	if record.Dynamodb != nil {
		out.Change = events.DynamoDBStreamRecord{
			Keys:     lambdaAttributes(record.Dynamodb.Keys),
			OldImage: lambdaAttributes(record.Dynamodb.OldImage),
			NewImage: lambdaAttributes(record.Dynamodb.NewImage),
		}
	}
	return out
}

func lambdaAttributes(avs map[string]types.AttributeValue) map[string]events.DynamoDBAttributeValue {
	if len(avs) == 0 {
		return nil
	}
	out := make(map[string]events.DynamoDBAttributeValue, len(avs))
	for name, av := range avs {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			out[name] = events.NewStringAttribute(s.Value)
		}
	}
	return out
}
