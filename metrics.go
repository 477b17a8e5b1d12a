// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"

	"github.com/albumlab/shutterbus/bus"
	"github.com/albumlab/shutterbus/notify"
	"github.com/albumlab/shutterbus/queue"
	"github.com/albumlab/shutterbus/store/metric"
)

// provideMetrics bootstraps the metrics environment and the per-package
// measures.
func provideMetrics() fx.Option {
	return fx.Options(
		fx.Provide(
			func(v *viper.Viper) (touchstone.Config, error) {
				var c touchstone.Config
				err := v.UnmarshalKey("prometheus", &c)
				return c, err
			},
		),
		touchstone.Provide(),
		bus.ProvideMetrics(),
		notify.ProvideMetrics(),
		queue.ProvideMetrics(),
		metric.ProvideMetrics(),
	)
}
