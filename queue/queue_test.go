// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

func testEvent(key string) model.NormalizedEvent {
	return model.NormalizedEvent{
		Kind:      model.KindObjectCreated,
		Type:      "ObjectCreated:Put",
		ObjectKey: key,
		Bucket:    "album",
	}
}

func TestReceiveFullBatch(t *testing.T) {
	q := New("test", Config{BatchSize: 3, MaxWait: time.Minute}, nil, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("a.png"))
	q.Enqueue(testEvent("b.png"))
	q.Enqueue(testEvent("c.png"))
	q.Enqueue(testEvent("d.png"))

	batch, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 3, "a full batch must return without waiting out the window")

	keys := []string{}
	for _, env := range batch {
		assert.Equal(t, 1, env.ReceiveCount)
		keys = append(keys, env.Event.ObjectKey)
	}
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, keys)

	// The claimed envelopes stay on the queue until acknowledged.
	assert.Equal(t, 4, q.Len())
}

func TestReceivePartialBatchAfterWindow(t *testing.T) {
	q := New("test", Config{BatchSize: 5, MaxWait: 50 * time.Millisecond}, nil, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("only.png"))

	start := time.Now()
	batch, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"a partial batch should be held for the batching window")
}

func TestReceiveContextCanceled(t *testing.T) {
	q := New("test", Config{}, nil, zap.NewNop(), Measures{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	batch, err := q.Receive(ctx)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeleteAcknowledges(t *testing.T) {
	q := New("test", Config{BatchSize: 1}, nil, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("a.png"))

	batch, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)

	q.Delete(batch[0])
	assert.Zero(t, q.Len())
}

func TestVisibilityTimeoutRedelivers(t *testing.T) {
	q := New("test", Config{
		BatchSize:         1,
		MaxWait:           10 * time.Millisecond,
		VisibilityTimeout: 30 * time.Millisecond,
		RetryBudget:       5,
	}, nil, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("flaky.png"))

	first, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].ReceiveCount)

	// Unacknowledged: after the visibility timeout the same envelope comes
	// back with a bumped receive count.
	second, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, 2, second[0].ReceiveCount)
}

func TestQuarantineAfterRetryBudget(t *testing.T) {
	quarantine := New("rejection", Config{BatchSize: 1, MaxWait: 10 * time.Millisecond}, nil, zap.NewNop(), Measures{})
	q := New("test", Config{
		BatchSize:         1,
		MaxWait:           10 * time.Millisecond,
		VisibilityTimeout: 20 * time.Millisecond,
	}, quarantine, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("poison.png"))

	// The zero-value budget defaults to one redelivery: exactly two
	// attempts are made.
	for attempt := 1; attempt <= 2; attempt++ {
		batch, err := q.Receive(context.Background())
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, attempt, batch[0].ReceiveCount)
	}

	// The third receive finds the budget exhausted and diverts the envelope.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	batch, err := q.Receive(ctx)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Zero(t, q.Len())
	require.Equal(t, 1, quarantine.Len(), "exactly one quarantine entry per exhausted envelope")

	// The moved envelope must remain receivable from the quarantine queue
	// even though its receive count already exceeds any budget.
	moved, err := quarantine.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "poison.png", moved[0].Event.ObjectKey)
	assert.Equal(t, 3, moved[0].ReceiveCount)
}

func TestNoQuarantineTargetRedeliversIndefinitely(t *testing.T) {
	q := New("test", Config{
		BatchSize:         1,
		MaxWait:           10 * time.Millisecond,
		VisibilityTimeout: 20 * time.Millisecond,
	}, nil, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("flaky.png"))

	// Without a dead-letter target the budget is not enforced; the
	// envelope keeps coming back until acknowledged.
	for attempt := 1; attempt <= 4; attempt++ {
		batch, err := q.Receive(context.Background())
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, attempt, batch[0].ReceiveCount)
	}
	assert.Equal(t, 1, q.Len())
}

func TestNegativeRetryBudgetDisablesRedelivery(t *testing.T) {
	quarantine := New("rejection", Config{BatchSize: 1, MaxWait: 10 * time.Millisecond}, nil, zap.NewNop(), Measures{})
	q := New("test", Config{
		BatchSize:         1,
		MaxWait:           10 * time.Millisecond,
		VisibilityTimeout: 20 * time.Millisecond,
		RetryBudget:       -1,
	}, quarantine, zap.NewNop(), Measures{})
	q.Enqueue(testEvent("poison.png"))

	batch, err := q.Receive(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, q.Len())
	assert.Equal(t, 1, quarantine.Len())
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, defaultBatchSize, c.BatchSize)
	assert.Equal(t, defaultMaxWait, c.MaxWait)
	assert.Equal(t, defaultVisibilityTimeout, c.VisibilityTimeout)
	assert.Equal(t, defaultRetryBudget, c.RetryBudget)

	c = Config{RetryBudget: -1}.withDefaults()
	assert.Zero(t, c.RetryBudget)
}

func TestEnqueueWakesWaitingReceive(t *testing.T) {
	q := New("test", Config{BatchSize: 1, MaxWait: time.Minute}, nil, zap.NewNop(), Measures{})

	done := make(chan []*Envelope, 1)
	go func() {
		batch, _ := q.Receive(context.Background())
		done <- batch
	}()

	time.Sleep(20 * time.Millisecond)
	q.Enqueue(testEvent("late.png"))

	select {
	case batch := <-done:
		require.Len(t, batch, 1)
		assert.Equal(t, "late.png", batch[0].Event.ObjectKey)
	case <-time.After(time.Second):
		t.Fatal("Receive never woke up")
	}
}
