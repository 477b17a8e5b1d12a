// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	DepthGauge         = "delivery_queue_depth"
	QuarantinedCounter = "quarantined_count"

	QueueLabel = "queue"
)

// ProvideMetrics builds the queue metrics and makes them available to the
// container.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: DepthGauge,
			Target: touchstone.GaugeVec(
				prometheus.GaugeOpts{
					Name: DepthGauge,
					Help: "The number of envelopes currently held, per queue",
				},
				QueueLabel,
			),
		},
		fx.Annotated{
			Name: QuarantinedCounter,
			Target: touchstone.CounterVec(
				prometheus.CounterOpts{
					Name: QuarantinedCounter,
					Help: "The total number of envelopes moved to quarantine, per queue",
				},
				QueueLabel,
			),
		},
	)
}

type Measures struct {
	fx.In
	Depth       *prometheus.GaugeVec   `name:"delivery_queue_depth"`
	Quarantined *prometheus.CounterVec `name:"quarantined_count"`
}
