// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/bus"
	"github.com/albumlab/shutterbus/handler"
	"github.com/albumlab/shutterbus/ingest"
	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/notify"
	"github.com/albumlab/shutterbus/queue"
	"github.com/albumlab/shutterbus/store/db"
	"github.com/albumlab/shutterbus/stream"
)

const (
	applicationName = "shutterbus"
	apiBase         = "api/v1"
)

const (
	deliveryQueueName   = "image_process"
	quarantineQueueName = "rejection"
)

// subscription names double as the metric label values.
const (
	imageProcessSubscription   = "image-process"
	deleteSyncSubscription     = "delete-sync"
	metadataUpdateSubscription = "metadata-update"
	creationMailerSubscription = "creation-mailer"
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

func main() {
	v, logger, err := setup(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := fx.New(
		arrange.LoggerFunc(logger.Sugar().Infof),
		fx.Supply(logger),
		arrange.ForViper(v),
		provideMetrics(),
		provideAWS(),
		provideConfig(),
		provideCore(),
		fx.Invoke(
			startConsumers,
			startStreamReader,
			startQueueSource,
			BuildPrimaryRoutes,
			BuildMetricsRoutes,
			BuildHealthRoutes,
		),
	)

	switch err := app.Err(); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err == nil:
		app.Run()
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func provideConfig() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (notify.Config, error) {
			var c notify.Config
			if err := v.UnmarshalKey("mailer", &c); err != nil {
				return c, err
			}
			return c, c.Validate()
		},
		func(v *viper.Viper) (db.Config, error) {
			var c db.Config
			err := v.UnmarshalKey("store", &c)
			return c, err
		},
		func(v *viper.Viper) (queue.Config, error) {
			var c queue.Config
			err := v.UnmarshalKey("deliveryQueue", &c)
			return c, err
		},
	)
}

// provideCore assembles the pipeline: store, handlers, the delivery and
// quarantine queues, and the router with its four subscriptions.
func provideCore() fx.Option {
	return fx.Options(
		fx.Provide(
			db.Provide,
			handler.NewMailer,
			handler.NewCreationMailer,
			handler.NewQuarantineMailer,
			handler.NewDeletionMailer,
			handler.NewCreateImage,
			handler.NewDeleteSync,
			handler.NewUpdateMetadata,
			ingest.NewTopicHandler,
			provideQueues,
			newRouter,
		),
	)
}

type QueuesIn struct {
	fx.In
	Config   queue.Config
	Logger   *zap.Logger
	Measures queue.Measures
}

type QueuesOut struct {
	fx.Out
	Delivery   *queue.Queue `name:"delivery_queue"`
	Quarantine *queue.Queue `name:"quarantine_queue"`
}

// provideQueues builds the quarantine queue first so the delivery queue can
// dead-letter into it.
func provideQueues(in QueuesIn) QueuesOut {
	quarantine := queue.New(quarantineQueueName, queue.Config{}, nil, in.Logger, in.Measures)
	delivery := queue.New(deliveryQueueName, in.Config, quarantine, in.Logger, in.Measures)
	return QueuesOut{
		Delivery:   delivery,
		Quarantine: quarantine,
	}
}

type RouterIn struct {
	fx.In
	Logger   *zap.Logger
	Measures bus.Measures
	Delivery *queue.Queue `name:"delivery_queue"`
	Create   *handler.CreateImage
	Delete   *handler.DeleteSync
	Update   *handler.UpdateMetadata
	Creation *handler.CreationMailer
}

// newRouter wires the topic subscriptions. Uploads go through the buffered
// delivery queue; the remaining subscribers are pushed directly.
func newRouter(in RouterIn) (*bus.Router, error) {
	return bus.New(in.Logger, in.Measures,
		bus.Subscription{
			Name:   imageProcessSubscription,
			Filter: bus.PrefixFilter{Prefixes: []string{"ObjectCreated:Put"}},
			Mode:   bus.Buffered,
			Deliver: func(_ context.Context, evt model.NormalizedEvent) error {
				in.Delivery.Enqueue(evt)
				return nil
			},
		},
		bus.Subscription{
			Name:    deleteSyncSubscription,
			Filter:  bus.AllowFilter{Values: []string{"ObjectRemoved:Delete"}},
			Mode:    bus.Push,
			Deliver: in.Delete.Handle,
		},
		bus.Subscription{
			Name: metadataUpdateSubscription,
			Filter: bus.AttributeFilter{
				Key:   "comment_type",
				Allow: []string{"Description"},
			},
			Mode:    bus.Push,
			Deliver: in.Update.Handle,
		},
		bus.Subscription{
			Name:    creationMailerSubscription,
			Filter:  bus.AllowFilter{Values: []string{"ObjectCreated:Put"}},
			Mode:    bus.Push,
			Deliver: in.Creation.Handle,
		},
	)
}

type ConsumersIn struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Logger     *zap.Logger
	Delivery   *queue.Queue `name:"delivery_queue"`
	Quarantine *queue.Queue `name:"quarantine_queue"`
	Create     *handler.CreateImage
	Rejection  *handler.QuarantineMailer
}

// startConsumers runs the buffered side of the pipeline: the image-process
// consumer drains the delivery queue and the rejection mailer drains
// quarantine.
func startConsumers(in ConsumersIn) error {
	process, err := queue.NewConsumer(deliveryQueueName, in.Delivery, in.Create.Handle, in.Logger)
	if err != nil {
		return err
	}
	rejection, err := queue.NewConsumer(quarantineQueueName, in.Quarantine, in.Rejection.Handle, in.Logger)
	if err != nil {
		return err
	}

	in.Lifecycle.Append(fx.Hook{OnStart: process.Start, OnStop: process.Stop})
	in.Lifecycle.Append(fx.Hook{OnStart: rejection.Start, OnStop: rejection.Stop})
	return nil
}

// StreamSettings configures the change-stream tail.
type StreamSettings struct {
	// Arn identifies the table's change stream. Empty disables the reader.
	Arn string

	PullInterval time.Duration
	RecordLimit  int32
}

type StreamReaderIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	V         *viper.Viper
	Logger    *zap.Logger
	Streams   *dynamodbstreams.Client
	Deletion  *handler.DeletionMailer
}

func startStreamReader(in StreamReaderIn) error {
	var settings StreamSettings
	if err := in.V.UnmarshalKey("stream", &settings); err != nil {
		return err
	}
	if settings.Arn == "" {
		in.Logger.Info("change stream reader disabled")
		return nil
	}

	source, err := stream.NewDynamoSource(stream.SourceConfig{
		StreamArn:   settings.Arn,
		RecordLimit: settings.RecordLimit,
	}, in.Streams, in.Logger)
	if err != nil {
		return err
	}

	reader, err := stream.NewReader(stream.Config{
		PullInterval: settings.PullInterval,
	}, source, in.Deletion.HandleChanges, in.Logger)
	if err != nil {
		return err
	}

	in.Lifecycle.Append(fx.Hook{OnStart: reader.Start, OnStop: reader.Stop})
	return nil
}

type QueueSourceIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	V         *viper.Viper
	Logger    *zap.Logger
	Client    *sqs.Client
	Router    *bus.Router
}

func startQueueSource(in QueueSourceIn) error {
	var config ingest.SQSConfig
	if err := in.V.UnmarshalKey("ingest", &config); err != nil {
		return err
	}
	if config.QueueURL == "" {
		in.Logger.Info("queue source disabled")
		return nil
	}

	source, err := ingest.NewSQSSource(config, in.Client, in.Router, in.Logger)
	if err != nil {
		return err
	}

	in.Lifecycle.Append(fx.Hook{OnStart: source.Start, OnStop: source.Stop})
	return nil
}
