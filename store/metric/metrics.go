// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"

	"github.com/albumlab/shutterbus/store"
)

const (
	QuerySuccessCounter = "store_query_success_count"
	QueryFailureCounter = "store_query_failure_count"
)

// ProvideMetrics returns the metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: QuerySuccessCounter,
			Target: touchstone.CounterVec(
				prometheus.CounterOpts{
					Name: QuerySuccessCounter,
					Help: "The total number of successful store queries",
				},
				store.TypeLabel,
			),
		},
		fx.Annotated{
			Name: QueryFailureCounter,
			Target: touchstone.CounterVec(
				prometheus.CounterOpts{
					Name: QueryFailureCounter,
					Help: "The total number of failed store queries",
				},
				store.TypeLabel,
			),
		},
	)
}

type Measures struct {
	fx.In
	QuerySuccessCount *prometheus.CounterVec `name:"store_query_success_count"`
	QueryFailureCount *prometheus.CounterVec `name:"store_query_failure_count"`
}
