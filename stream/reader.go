// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stream tails the ordered change log of the metadata store and
// feeds mutation batches to a consumer. A failing batch is bisected so one
// poisoned record cannot block the rest of the shard.
package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

// Errors that can be returned by this package. Since some of these errors
// are returned wrapped, it is safest to use errors.Is() to check for them.
var (
	ErrReaderNotStopped   = errors.New("reader is either running or starting")
	ErrReaderNotRunning   = errors.New("reader is either stopped or stopping")
	ErrNoSourceProvided   = errors.New("no source provided")
	ErrNoConsumerProvided = errors.New("no consumer provided")
)

// reader states
const (
	stopped int32 = iota
	running
	transitioning
)

const defaultPullInterval = time.Second

// Source yields ordered change records. Next may return an empty batch when
// the reader has caught up; Commit durably advances the cursor past the
// records handed out by the previous Next.
type Source interface {
	Next(ctx context.Context) ([]model.ChangeRecord, error)
	Commit(ctx context.Context) error
}

// ConsumerFunc receives one batch of ordered change records.
type ConsumerFunc func(ctx context.Context, records []model.ChangeRecord) error

// Config tunes the reader.
type Config struct {
	// PullInterval is how often the source is polled for new records.
	// (Optional). Defaults to 1 second.
	PullInterval time.Duration
}

// Reader polls a Source on an interval and dispatches each batch to its
// consumer. The cursor advances only after the batch has been fully
// dispositioned, so an interrupted reader resumes from the last committed
// position and redelivers.
type Reader struct {
	source   Source
	consumer ConsumerFunc
	logger   *zap.Logger

	pullInterval time.Duration
	ticker       *time.Ticker
	shutdown     chan struct{}
	done         chan struct{}
	cancel       context.CancelFunc
	state        int32
}

func NewReader(config Config, source Source, consumer ConsumerFunc, logger *zap.Logger) (*Reader, error) {
	if source == nil {
		return nil, ErrNoSourceProvided
	}
	if consumer == nil {
		return nil, ErrNoConsumerProvided
	}
	if config.PullInterval <= 0 {
		config.PullInterval = defaultPullInterval
	}
	return &Reader{
		source:       source,
		consumer:     consumer,
		logger:       logger,
		pullInterval: config.PullInterval,
		ticker:       time.NewTicker(config.PullInterval),
		shutdown:     make(chan struct{}),
	}, nil
}

// Start begins tailing the change log. If the reader is already running,
// Start is an error; call Stop first to restart.
func (r *Reader) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.state, stopped, transitioning) {
		return ErrReaderNotStopped
	}

	r.ticker.Reset(r.pullInterval)
	r.done = make(chan struct{})
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		defer close(r.done)
		for {
			select {
			case <-r.shutdown:
				return
			case <-r.ticker.C:
				r.poll(runCtx)
			}
		}
	}()

	atomic.SwapInt32(&r.state, running)
	return nil
}

// Stop requests the tail loop to stop and waits for it to exit. Any poll in
// flight has its context canceled so a blocked consumer unwinds promptly.
func (r *Reader) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.state, running, transitioning) {
		return ErrReaderNotRunning
	}

	r.ticker.Stop()
	r.cancel()
	select {
	case r.shutdown <- struct{}{}:
	case <-r.done:
	case <-ctx.Done():
		atomic.SwapInt32(&r.state, stopped)
		return ctx.Err()
	}
	atomic.SwapInt32(&r.state, stopped)
	return nil
}

func (r *Reader) poll(ctx context.Context) {
	records, err := r.source.Next(ctx)
	if err != nil {
		r.logger.Error("failed to read change records", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	r.dispatch(ctx, records)

	if err := r.source.Commit(ctx); err != nil {
		// Redelivery after a failed commit is safe: consumers are idempotent.
		r.logger.Error("failed to commit change-stream cursor", zap.Error(err))
	}
}

// dispatch delivers records to the consumer, bisecting on failure until the
// poisoned record is isolated. A single record that still fails is logged
// and skipped; order within and across the halves is preserved.
func (r *Reader) dispatch(ctx context.Context, records []model.ChangeRecord) {
	if len(records) == 0 {
		return
	}
	err := r.consumer(ctx, records)
	if err == nil {
		return
	}
	if len(records) == 1 {
		r.logger.Error("skipping poisoned change record",
			zap.String("operation", string(records[0].Operation)),
			zap.String("key", records[0].Key),
			zap.Error(err))
		return
	}

	mid := len(records) / 2
	r.dispatch(ctx, records[:mid])
	r.dispatch(ctx, records[mid:])
}
