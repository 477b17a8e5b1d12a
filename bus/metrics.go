// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	DeliveryCounter = "delivery_count"

	SubscriptionLabel = "subscription"
	OutcomeLabel      = "outcome"

	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics builds the router metrics and makes them available to the
// container.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: DeliveryCounter,
			Target: touchstone.CounterVec(
				prometheus.CounterOpts{
					Name: DeliveryCounter,
					Help: "The total number of deliveries attempted, per subscription and outcome",
				},
				SubscriptionLabel,
				OutcomeLabel,
			),
		},
	)
}

type Measures struct {
	fx.In
	Deliveries *prometheus.CounterVec `name:"delivery_count"`
}
