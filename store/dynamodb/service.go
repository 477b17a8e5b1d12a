// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
)

// DynamoDB attribute keys
const (
	nameAttributeKey        = "ImageName"
	descriptionAttributeKey = "Description"
)

// client captures the methods of interest from the DynamoDB API. This
// should help mock API calls as well.
type client interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// service defines the DynamoDB specific DAO interface. It helps keeping
// middleware such as logging and instrumentation orthogonal to business
// logic.
type service interface {
	Push(ctx context.Context, record model.ImageRecord) error
	Get(ctx context.Context, name string) (model.ImageRecord, error)
	Update(ctx context.Context, name, description string) error
	Delete(ctx context.Context, name string) error
}

// executor satisfies the service interface so the dao can adapt the outputs
// to the abstract store interface.
type executor struct {
	c         client
	tableName string
}

func recordKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		nameAttributeKey: &types.AttributeValueMemberS{Value: name},
	}
}

func (d *executor) Push(ctx context.Context, record model.ImageRecord) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return err
	}
	_, err = d.c.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		return store.RecordOperationError{Err: err, Name: record.Name, Operation: store.InsertType}
	}
	return nil
}

func (d *executor) Get(ctx context.Context, name string) (model.ImageRecord, error) {
	out, err := d.c.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       recordKey(name),
	})
	if err != nil {
		return model.ImageRecord{}, store.RecordOperationError{Err: err, Name: name, Operation: store.ReadType}
	}
	if len(out.Item) == 0 {
		return model.ImageRecord{}, store.RecordOperationError{Err: store.ErrRecordNotFound, Name: name, Operation: store.ReadType}
	}

	var record model.ImageRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return model.ImageRecord{}, store.RecordOperationError{Err: err, Name: name, Operation: store.ReadType}
	}
	return record, nil
}

func (d *executor) Update(ctx context.Context, name, description string) error {
	_, err := d.c.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.tableName),
		Key:                 recordKey(name),
		UpdateExpression:    aws.String("SET " + descriptionAttributeKey + " = :description"),
		ConditionExpression: aws.String("attribute_exists(" + nameAttributeKey + ")"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":description": &types.AttributeValueMemberS{Value: description},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return store.RecordOperationError{Err: store.ErrRecordNotFound, Name: name, Operation: store.UpdateType}
		}
		return store.RecordOperationError{Err: err, Name: name, Operation: store.UpdateType}
	}
	return nil
}

func (d *executor) Delete(ctx context.Context, name string) error {
	_, err := d.c.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       recordKey(name),
	})
	if err != nil {
		return store.RecordOperationError{Err: err, Name: name, Operation: store.DeleteType}
	}
	return nil
}
