// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bus fans inbound events out to a fixed set of subscriptions. The
// subscription table is built once at startup and never changes; there is no
// dynamic registration.
package bus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

// DeliveryMode describes how a subscription receives matching events.
type DeliveryMode string

const (
	// Push invokes the consumer synchronously; its outcome propagates to the
	// publisher so the inbound transport can redeliver on failure.
	Push DeliveryMode = "push"

	// Buffered hands the event to an intermediary queue; Deliver is an
	// enqueue and never fails.
	Buffered DeliveryMode = "buffered"
)

var (
	ErrNoSubscriptions = errors.New("router requires at least one subscription")

	errNoName    = errors.New("subscription requires a name")
	errNoFilter  = errors.New("subscription requires a filter")
	errNoDeliver = errors.New("subscription requires a delivery function")
)

// DeliverFunc receives one matching event.
type DeliverFunc func(ctx context.Context, evt model.NormalizedEvent) error

// Subscription is a (consumer, filter, delivery mode) triple.
type Subscription struct {
	Name    string
	Filter  Filter
	Mode    DeliveryMode
	Deliver DeliverFunc
}

// DeliveryResult is the outcome of delivering one event to one matching
// subscription.
type DeliveryResult struct {
	Subscription string
	Mode         DeliveryMode
	Err          error
}

// Results collects the per-subscription outcomes of a single publish.
type Results []DeliveryResult

// Err merges the push delivery failures. Buffered deliveries never
// contribute. A non-nil return tells the inbound transport to redeliver.
func (rs Results) Err() error {
	var err error
	for _, r := range rs {
		if r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("subscription %s: %w", r.Subscription, r.Err))
		}
	}
	return err
}

// Router evaluates every subscription's filter against each published event
// and delivers matches independently of one another.
type Router struct {
	subscriptions []Subscription
	logger        *zap.Logger
	measures      Measures
}

func New(logger *zap.Logger, measures Measures, subscriptions ...Subscription) (*Router, error) {
	if len(subscriptions) == 0 {
		return nil, ErrNoSubscriptions
	}
	for _, s := range subscriptions {
		switch {
		case s.Name == "":
			return nil, errNoName
		case s.Filter == nil:
			return nil, fmt.Errorf("subscription %s: %w", s.Name, errNoFilter)
		case s.Deliver == nil:
			return nil, fmt.Errorf("subscription %s: %w", s.Name, errNoDeliver)
		}
	}
	return &Router{
		subscriptions: subscriptions,
		logger:        logger,
		measures:      measures,
	}, nil
}

// Publish fans evt out to every matching subscription and returns one result
// per match. A failing consumer never blocks, aborts, or alters delivery to
// the others.
func (r *Router) Publish(ctx context.Context, evt model.NormalizedEvent) Results {
	var results Results
	for _, s := range r.subscriptions {
		if !s.Filter.Match(evt) {
			continue
		}

		err := s.Deliver(ctx, evt)
		outcome := SuccessOutcome
		if err != nil {
			outcome = FailureOutcome
			r.logger.Error("delivery failed",
				zap.String("subscription", s.Name),
				zap.String("eventType", evt.Type),
				zap.String("objectKey", evt.ObjectKey),
				zap.Error(err))
		}
		if r.measures.Deliveries != nil {
			r.measures.Deliveries.WithLabelValues(s.Name, outcome).Inc()
		}
		results = append(results, DeliveryResult{Subscription: s.Name, Mode: s.Mode, Err: err})
	}
	return results
}
