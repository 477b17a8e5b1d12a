// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// client captures the methods of interest from the S3 API. This should help
// mock API calls as well.
type client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Reader implements Reader against S3.
type S3Reader struct {
	c client
}

func NewS3Reader(c *s3.Client) *S3Reader {
	return &S3Reader{c: c}
}

func (r *S3Reader) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := r.c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
