// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/xmidt-org/httpaux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/ingest"
)

// ServerConfig holds the listen settings for one HTTP server.
type ServerConfig struct {
	Address string

	// DisableHTTPKeepAlives turns off connection reuse on this server.
	DisableHTTPKeepAlives bool
}

// serveOnLifecycle binds a server to the fx lifecycle: listen on start,
// graceful shutdown on stop.
func serveOnLifecycle(lc fx.Lifecycle, logger *zap.Logger, name string, config ServerConfig, handler http.Handler) {
	server := &http.Server{
		Addr:              config.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.SetKeepAlivesEnabled(!config.DisableHTTPKeepAlives)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			listener, err := net.Listen("tcp", config.Address)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", config.Address, err)
			}
			logger.Info("starting server", zap.String("server", name), zap.String("address", config.Address))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server exited", zap.String("server", name), zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: server.Shutdown,
	})
}

// accessLog logs one line per request.
func accessLog(logger *zap.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("handled request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type PrimaryRouterIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	V         *viper.Viper
	Logger    *zap.Logger
	Topic     *ingest.TopicHandler
}

// BuildPrimaryRoutes exposes the push-subscription endpoint. The server is
// disabled when no address is configured; the queue source can carry all
// inbound traffic on its own.
func BuildPrimaryRoutes(in PrimaryRouterIn) error {
	var config ServerConfig
	if err := in.V.UnmarshalKey("servers.primary", &config); err != nil {
		return err
	}
	if config.Address == "" {
		in.Logger.Info("primary server disabled")
		return nil
	}

	router := mux.NewRouter()
	router.Handle(fmt.Sprintf("/%s/events", apiBase), in.Topic).Methods(http.MethodPost)

	chain := alice.New(accessLog(in.Logger))
	serveOnLifecycle(in.Lifecycle, in.Logger, "primary", config, chain.Then(router))
	return nil
}

type MetricsRouterIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	V         *viper.Viper
	Logger    *zap.Logger
	Gatherer  prometheus.Gatherer
}

func BuildMetricsRoutes(in MetricsRouterIn) error {
	var config ServerConfig
	if err := in.V.UnmarshalKey("servers.metrics", &config); err != nil {
		return err
	}
	if config.Address == "" {
		in.Logger.Info("metrics server disabled")
		return nil
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(in.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	serveOnLifecycle(in.Lifecycle, in.Logger, "metrics", config, router)
	return nil
}

type HealthRouterIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	V         *viper.Viper
	Logger    *zap.Logger
}

func BuildHealthRoutes(in HealthRouterIn) error {
	var config ServerConfig
	if err := in.V.UnmarshalKey("servers.health", &config); err != nil {
		return err
	}
	if config.Address == "" {
		in.Logger.Info("health server disabled")
		return nil
	}

	router := mux.NewRouter()
	router.Handle("/health", httpaux.ConstantHandler{
		StatusCode: http.StatusOK,
	}).Methods(http.MethodGet)
	serveOnLifecycle(in.Lifecycle, in.Logger, "health", config, router)
	return nil
}
