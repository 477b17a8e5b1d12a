// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	SendCounter = "notification_send_count"

	OutcomeLabel = "outcome"

	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics builds the notification metrics and makes them available to
// the container.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: SendCounter,
			Target: touchstone.CounterVec(
				prometheus.CounterOpts{
					Name: SendCounter,
					Help: "The total number of notification emails attempted, per outcome",
				},
				OutcomeLabel,
			),
		},
	)
}

type Measures struct {
	fx.In
	Sends *prometheus.CounterVec `name:"notification_send_count"`
}
