// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/albumlab/shutterbus/blob"
	"github.com/albumlab/shutterbus/notify"
	notifyses "github.com/albumlab/shutterbus/notify/ses"
)

// awsSettings configures the shared AWS client base. Endpoint and static
// credentials are only needed against local stacks.
type awsSettings struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func provideAWS() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (awsSettings, error) {
			var s awsSettings
			err := v.UnmarshalKey("aws", &s)
			return s, err
		},
		func(s awsSettings) (aws.Config, error) {
			loadOptions := []func(*awsconfig.LoadOptions) error{
				awsconfig.WithRegion(s.Region),
			}
			if s.AccessKey != "" {
				loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
					credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")))
			}
			return awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
		},
		func(cfg aws.Config, s awsSettings) *s3.Client {
			return s3.NewFromConfig(cfg, func(o *s3.Options) {
				if s.Endpoint != "" {
					o.BaseEndpoint = aws.String(s.Endpoint)
					o.UsePathStyle = true
				}
			})
		},
		func(cfg aws.Config, s awsSettings) *sqs.Client {
			return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
				if s.Endpoint != "" {
					o.BaseEndpoint = aws.String(s.Endpoint)
				}
			})
		},
		func(cfg aws.Config, s awsSettings) *dynamodbstreams.Client {
			return dynamodbstreams.NewFromConfig(cfg, func(o *dynamodbstreams.Options) {
				if s.Endpoint != "" {
					o.BaseEndpoint = aws.String(s.Endpoint)
				}
			})
		},
		// Notifications go out of the mailer's own region, which may differ
		// from where the rest of the pipeline runs.
		func(cfg aws.Config, s awsSettings, mailer notify.Config) *awsses.Client {
			return awsses.NewFromConfig(cfg, func(o *awsses.Options) {
				o.Region = mailer.Region
				if s.Endpoint != "" {
					o.BaseEndpoint = aws.String(s.Endpoint)
				}
			})
		},
		func(c *s3.Client) blob.Reader {
			return blob.NewS3Reader(c)
		},
		func(c *awsses.Client) notify.Dispatcher {
			return notifyses.NewDispatcher(c)
		},
	)
}
