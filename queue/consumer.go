// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

// Errors that can be returned by this package. Since some of these errors
// are returned wrapped, it is safest to use errors.Is() to check for them.
var (
	ErrConsumerNotStopped = errors.New("consumer is either running or starting")
	ErrConsumerNotRunning = errors.New("consumer is either stopped or stopping")
	ErrNoQueueProvided    = errors.New("no queue provided")
	ErrNoHandlerProvided  = errors.New("no handler provided")
)

// consumer states
const (
	stopped int32 = iota
	running
	transitioning
)

// HandlerFunc processes one delivered event. A nil return acknowledges the
// envelope; an error leaves it on the queue for redelivery.
type HandlerFunc func(ctx context.Context, evt model.NormalizedEvent) error

// Consumer drains a queue in batches, invoking its handler once per envelope
// and acknowledging only successes. Events within a batch are processed
// sequentially so at most one envelope is ever mid-flight per queue.
type Consumer struct {
	name    string
	queue   *Queue
	handler HandlerFunc
	logger  *zap.Logger

	state  int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(name string, q *Queue, handler HandlerFunc, logger *zap.Logger) (*Consumer, error) {
	if q == nil {
		return nil, ErrNoQueueProvided
	}
	if handler == nil {
		return nil, ErrNoHandlerProvided
	}
	return &Consumer{
		name:    name,
		queue:   q,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start launches the drain loop. Calling Start on a consumer that is not
// stopped is an error; call Stop first to restart.
func (c *Consumer) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.state, stopped, transitioning) {
		return ErrConsumerNotStopped
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for {
			batch, err := c.queue.Receive(runCtx)
			if err != nil {
				return
			}
			for _, env := range batch {
				if err := c.handler(runCtx, env.Event); err != nil {
					c.logger.Error("envelope processing failed, delivery will be retried",
						zap.String("consumer", c.name),
						zap.String("eventType", env.Event.Type),
						zap.String("objectKey", env.Event.ObjectKey),
						zap.Int("receiveCount", env.ReceiveCount),
						zap.Error(err))
					continue
				}
				c.queue.Delete(env)
			}
		}
	}()

	atomic.SwapInt32(&c.state, running)
	return nil
}

// Stop cancels the drain loop and waits for it to exit.
func (c *Consumer) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.state, running, transitioning) {
		return ErrConsumerNotRunning
	}

	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
		atomic.SwapInt32(&c.state, stopped)
		return ctx.Err()
	}
	atomic.SwapInt32(&c.state, stopped)
	return nil
}
