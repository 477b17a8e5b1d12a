// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ingest feeds raw inbound envelopes into the router: a long-poll
// queue source for the main event path and an HTTP endpoint for push
// subscriptions.
package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/bus"
	"github.com/albumlab/shutterbus/envelope"
)

// Errors that can be returned by this package. Since some of these errors
// are returned wrapped, it is safest to use errors.Is() to check for them.
var (
	ErrSourceNotStopped = errors.New("source is either running or starting")
	ErrSourceNotRunning = errors.New("source is either stopped or stopping")
	ErrNoQueueURL       = errors.New("a queue URL is required")
)

// source states
const (
	stopped int32 = iota
	running
	transitioning
)

const (
	defaultBatchSize = 5
	defaultWaitTime  = 10 * time.Second
	receiveBackoff   = time.Second
)

// SQSAPI captures the methods of interest from the SQS API. This should
// help mock API calls as well.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConfig configures the inbound queue source.
type SQSConfig struct {
	// QueueURL is the inbound queue to long-poll.
	QueueURL string

	// BatchSize caps how many messages one poll may return.
	// (Optional). Defaults to 5.
	BatchSize int32

	// WaitTime is the long-poll window.
	// (Optional). Defaults to 10 seconds.
	WaitTime time.Duration
}

// SQSSource long-polls the inbound queue and publishes each decoded event.
// A message whose push deliveries all succeed is deleted; a failed push
// delivery leaves the message in place so the transport redelivers the
// whole batch. Malformed messages are deleted after logging: retrying them
// can never succeed.
type SQSSource struct {
	client SQSAPI
	config SQSConfig
	router *bus.Router
	logger *zap.Logger

	state  int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSQSSource(config SQSConfig, client SQSAPI, router *bus.Router, logger *zap.Logger) (*SQSSource, error) {
	if config.QueueURL == "" {
		return nil, ErrNoQueueURL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if config.WaitTime <= 0 {
		config.WaitTime = defaultWaitTime
	}
	return &SQSSource{
		client: client,
		config: config,
		router: router,
		logger: logger,
	}, nil
}

// Start launches the poll loop. Starting a source that is not stopped is an
// error; call Stop first to restart.
func (s *SQSSource) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stopped, transitioning) {
		return ErrSourceNotStopped
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)

	atomic.SwapInt32(&s.state, running)
	return nil
}

// Stop cancels the poll loop and waits for it to exit.
func (s *SQSSource) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, running, transitioning) {
		return ErrSourceNotRunning
	}

	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		atomic.SwapInt32(&s.state, stopped)
		return ctx.Err()
	}
	atomic.SwapInt32(&s.state, stopped)
	return nil
}

func (s *SQSSource) run(ctx context.Context) {
	defer close(s.done)
	for {
		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.config.QueueURL),
			MaxNumberOfMessages: s.config.BatchSize,
			WaitTimeSeconds:     int32(s.config.WaitTime / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("failed to receive messages", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}

		for _, message := range out.Messages {
			s.process(ctx, message)
		}
	}
}

func (s *SQSSource) process(ctx context.Context, message types.Message) {
	events, err := envelope.DecodeQueueMessage([]byte(aws.ToString(message.Body)))
	if err != nil {
		// A malformed envelope or record can never succeed on retry; log it,
		// isolate it, and let any surviving siblings continue.
		s.logger.Error("dropping malformed inbound event",
			zap.String("messageId", aws.ToString(message.MessageId)),
			zap.Error(err))
	}
	if len(events) == 0 && err != nil {
		s.delete(ctx, message)
		return
	}

	failed := false
	for _, evt := range events {
		if s.router.Publish(ctx, evt).Err() != nil {
			failed = true
		}
	}
	if failed {
		// Leave the message in place: the transport's visibility timeout
		// redelivers the whole batch, which is the intended back-pressure.
		return
	}
	s.delete(ctx, message)
}

func (s *SQSSource) delete(ctx context.Context, message types.Message) {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.config.QueueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		s.logger.Error("failed to delete message",
			zap.String("messageId", aws.ToString(message.MessageId)),
			zap.Error(err))
	}
}
