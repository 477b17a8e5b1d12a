// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package queue provides the buffered delivery path between the router and
// its batch consumer: envelopes carry receive counts, claimed envelopes stay
// invisible until their visibility deadline, and envelopes that exhaust the
// retry budget are moved to a quarantine queue instead of being retried
// forever.
package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

const (
	defaultBatchSize         = 5
	defaultMaxWait           = 10 * time.Second
	defaultVisibilityTimeout = 30 * time.Second
	defaultRetryBudget       = 1
)

// Config tunes one delivery queue.
type Config struct {
	// BatchSize caps how many envelopes a single Receive returns.
	BatchSize int

	// MaxWait is how long Receive holds a partial batch hoping it fills.
	MaxWait time.Duration

	// VisibilityTimeout is how long a claimed envelope stays hidden before
	// an unacknowledged delivery becomes receivable again.
	VisibilityTimeout time.Duration

	// RetryBudget is the number of redeliveries granted after the first
	// attempt, enforced only when a quarantine queue is attached. With a
	// budget of 1, the second failure is terminal: the next receive moves
	// the envelope to quarantine. Zero takes the default of 1; a negative
	// value grants no redeliveries.
	RetryBudget int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}
	if c.VisibilityTimeout <= 0 {
		c.VisibilityTimeout = defaultVisibilityTimeout
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = defaultRetryBudget
	} else if c.RetryBudget < 0 {
		c.RetryBudget = 0
	}
	return c
}

// Envelope wraps one event for buffered delivery.
type Envelope struct {
	Event model.NormalizedEvent

	// ReceiveCount is the number of times the envelope has been handed to a
	// consumer.
	ReceiveCount int

	visibleAt time.Time
}

// Queue is an in-process delivery queue with visibility-timeout semantics.
// A nil quarantine disables dead-lettering entirely, the same way a queue
// without a redrive policy has no receive-count cap: the retry budget is
// not enforced and envelopes are redelivered until acknowledged. That is
// how the quarantine queue itself is built, so envelopes moved into it
// stay receivable no matter how many deliveries they already consumed.
type Queue struct {
	name       string
	config     Config
	quarantine *Queue
	logger     *zap.Logger
	measures   Measures

	mu      sync.Mutex
	entries []*Envelope
	signal  chan struct{}
	now     func() time.Time
}

func New(name string, config Config, quarantine *Queue, logger *zap.Logger, measures Measures) *Queue {
	return &Queue{
		name:       name,
		config:     config.withDefaults(),
		quarantine: quarantine,
		logger:     logger,
		measures:   measures,
		signal:     make(chan struct{}, 1),
		now:        time.Now,
	}
}

// Enqueue adds an event. It never fails and never blocks; buffered delivery
// is asynchronous by design.
func (q *Queue) Enqueue(evt model.NormalizedEvent) {
	q.mu.Lock()
	q.entries = append(q.entries, &Envelope{Event: evt, visibleAt: q.now()})
	q.updateDepth()
	q.mu.Unlock()
	q.wake()
}

// enqueueEnvelope admits an envelope moved from another queue, unmodified.
func (q *Queue) enqueueEnvelope(env *Envelope) {
	q.mu.Lock()
	env.visibleAt = q.now()
	q.entries = append(q.entries, env)
	q.updateDepth()
	q.mu.Unlock()
	q.wake()
}

// Receive claims up to BatchSize visible envelopes, waiting up to MaxWait
// after the first claim for the batch to fill. Claimed envelopes stay on the
// queue but invisible until their visibility deadline; Delete acknowledges
// them. Envelopes past the retry budget are diverted to quarantine and never
// returned.
func (q *Queue) Receive(ctx context.Context) ([]*Envelope, error) {
	var (
		batch     []*Envelope
		windowEnd time.Time
	)
	for {
		q.mu.Lock()
		now := q.now()
		var expired []*Envelope
		for _, env := range q.entries {
			if len(batch) >= q.config.BatchSize {
				break
			}
			if env.visibleAt.After(now) {
				continue
			}
			if q.quarantine != nil && env.ReceiveCount > q.config.RetryBudget {
				expired = append(expired, env)
				continue
			}
			env.ReceiveCount++
			env.visibleAt = now.Add(q.config.VisibilityTimeout)
			batch = append(batch, env)
		}
		for _, env := range expired {
			q.moveToQuarantineLocked(env)
		}
		if len(batch) > 0 && windowEnd.IsZero() {
			windowEnd = now.Add(q.config.MaxWait)
		}
		wake := q.nextWakeLocked(now, windowEnd)
		q.mu.Unlock()

		if len(batch) >= q.config.BatchSize {
			return batch, nil
		}
		if !windowEnd.IsZero() && !now.Before(windowEnd) {
			return batch, nil
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if !wake.IsZero() {
			timer = time.NewTimer(wake.Sub(now))
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if len(batch) > 0 {
				return batch, nil
			}
			return nil, ctx.Err()
		case <-q.signal:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
		}
	}
}

// Delete acknowledges a claimed envelope, removing it permanently.
func (q *Queue) Delete(env *Envelope) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e == env {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			q.updateDepth()
			return
		}
	}
}

// Len reports how many envelopes are on the queue, visible or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// moveToQuarantineLocked removes env from this queue and admits it,
// unmodified, to the quarantine queue. Callers check for a quarantine
// target before diverting.
func (q *Queue) moveToQuarantineLocked(env *Envelope) {
	for i, e := range q.entries {
		if e == env {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	q.updateDepth()
	if q.measures.Quarantined != nil {
		q.measures.Quarantined.WithLabelValues(q.name).Inc()
	}
	q.logger.Warn("retry budget exhausted, quarantining envelope",
		zap.String("queue", q.name),
		zap.String("eventType", env.Event.Type),
		zap.String("objectKey", env.Event.ObjectKey),
		zap.Int("receiveCount", env.ReceiveCount))
	q.quarantine.enqueueEnvelope(env)
}

// nextWakeLocked picks the earliest instant Receive needs to reexamine the
// queue: the batching window end or the nearest visibility expiry.
func (q *Queue) nextWakeLocked(now, windowEnd time.Time) time.Time {
	wake := windowEnd
	for _, env := range q.entries {
		if env.visibleAt.After(now) && (wake.IsZero() || env.visibleAt.Before(wake)) {
			wake = env.visibleAt
		}
	}
	return wake
}

func (q *Queue) updateDepth() {
	if q.measures.Depth != nil {
		q.measures.Depth.WithLabelValues(q.name).Set(float64(len(q.entries)))
	}
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
