// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package envelope unwraps provider event envelopes into normalized internal
// events. Three shapes are supported: a queue message wrapping a pub/sub
// notification wrapping an object-store event list, a bare pub/sub
// notification, and a flat change-stream record.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/multierr"

	"github.com/albumlab/shutterbus/model"
)

// Decode stages, used to tag ParseError with the envelope layer that failed.
const (
	StageQueue     = "queue"
	StageTopic     = "topic"
	StageObject    = "object"
	StageAttribute = "attribute"
	StageStream    = "stream"
)

var (
	errEmptyMessage      = errors.New("notification carries no message")
	errNoRecords         = errors.New("message carries no records and no recognized attributes")
	errMissingObjectKey  = errors.New("object record is missing its key")
	errMissingRecordName = errors.New("attribute change is missing the record name")
)

// ParseError reports a malformed or unrecognized envelope. It isolates the
// offending event: callers must not fail sibling events in the same batch.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s envelope: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrf(stage string, format string, args ...interface{}) *ParseError {
	return &ParseError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// DecodeQueueMessage unwraps a queue message body: queue payload, pub/sub
// notification, then the object-store event list. A failure to unwrap the
// outer layers returns a nil slice and a ParseError. A failure on an
// individual object record drops only that record; surviving siblings are
// returned alongside the aggregated record errors.
func DecodeQueueMessage(body []byte) ([]model.NormalizedEvent, error) {
	var sns events.SNSEntity
	if err := json.Unmarshal(body, &sns); err != nil {
		return nil, &ParseError{Stage: StageQueue, Err: err}
	}
	if sns.Message == "" {
		return nil, &ParseError{Stage: StageQueue, Err: errEmptyMessage}
	}
	return decodeNotification(&sns)
}

// DecodeTopicMessage unwraps a pub/sub notification delivered without the
// queue layer, e.g. straight off an HTTPS subscription. Error semantics match
// DecodeQueueMessage.
func DecodeTopicMessage(body []byte) ([]model.NormalizedEvent, error) {
	var sns events.SNSEntity
	if err := json.Unmarshal(body, &sns); err != nil {
		return nil, &ParseError{Stage: StageTopic, Err: err}
	}
	if sns.Message == "" {
		return nil, &ParseError{Stage: StageTopic, Err: errEmptyMessage}
	}
	return decodeNotification(&sns)
}

func decodeNotification(sns *events.SNSEntity) ([]model.NormalizedEvent, error) {
	attrs := stringAttributes(sns.MessageAttributes)
	if _, ok := attrs["comment_type"]; ok {
		evt, err := decodeAttributeChange(sns.Message, attrs)
		if err != nil {
			return nil, err
		}
		return []model.NormalizedEvent{evt}, nil
	}

	var s3ev events.S3Event
	if err := json.Unmarshal([]byte(sns.Message), &s3ev); err != nil {
		return nil, &ParseError{Stage: StageTopic, Err: err}
	}
	if len(s3ev.Records) == 0 {
		return nil, &ParseError{Stage: StageTopic, Err: errNoRecords}
	}

	var (
		out     []model.NormalizedEvent
		dropped error
	)
	for _, record := range s3ev.Records {
		evt, err := decodeObjectRecord(record)
		if err != nil {
			dropped = multierr.Append(dropped, err)
			continue
		}
		out = append(out, evt)
	}
	return out, dropped
}

func decodeObjectRecord(record events.S3EventRecord) (model.NormalizedEvent, error) {
	kind, err := kindOf(record.EventName)
	if err != nil {
		return model.NormalizedEvent{}, err
	}
	if record.S3.Object.Key == "" {
		return model.NormalizedEvent{}, &ParseError{Stage: StageObject, Err: errMissingObjectKey}
	}

	// Object keys arrive percent-encoded with '+' standing in for space.
	// They are decoded exactly once, here, so nothing downstream ever sees
	// an encoded key.
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return model.NormalizedEvent{}, parseErrf(StageObject, "decoding object key %q: %w", record.S3.Object.Key, err)
	}

	return model.NormalizedEvent{
		Kind:      kind,
		Type:      record.EventName,
		ObjectKey: key,
		Bucket:    record.S3.Bucket.Name,
	}, nil
}

type attributeChangeMessage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func decodeAttributeChange(message string, attrs map[string]string) (model.NormalizedEvent, error) {
	var m attributeChangeMessage
	if err := json.Unmarshal([]byte(message), &m); err != nil {
		return model.NormalizedEvent{}, &ParseError{Stage: StageAttribute, Err: err}
	}
	if m.Name == "" {
		return model.NormalizedEvent{}, &ParseError{Stage: StageAttribute, Err: errMissingRecordName}
	}
	return model.NormalizedEvent{
		Kind:        model.KindAttributeChanged,
		Type:        model.KindAttributeChanged.String(),
		ObjectKey:   m.Name,
		Attributes:  attrs,
		Description: m.Description,
	}, nil
}

// DecodeStreamRecord decodes a flat change-stream record. No unwrapping is
// involved; the record maps one to one onto a ChangeRecord.
func DecodeStreamRecord(body []byte) (model.ChangeRecord, error) {
	var record events.DynamoDBEventRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return model.ChangeRecord{}, &ParseError{Stage: StageStream, Err: err}
	}
	return NormalizeStreamRecord(record)
}

// NormalizeStreamRecord converts an already decoded change-stream record.
func NormalizeStreamRecord(record events.DynamoDBEventRecord) (model.ChangeRecord, error) {
	op := model.ChangeOp(record.EventName)
	switch op {
	case model.ChangeInsert, model.ChangeModify, model.ChangeRemove:
	default:
		return model.ChangeRecord{}, parseErrf(StageStream, "unrecognized stream operation %q", record.EventName)
	}

	key := streamString(record.Change.Keys, "ImageName")
	if key == "" {
		return model.ChangeRecord{}, parseErrf(StageStream, "stream record has no ImageName key")
	}

	return model.ChangeRecord{
		Operation: op,
		Key:       key,
		OldImage:  streamImage(record.Change.OldImage),
		NewImage:  streamImage(record.Change.NewImage),
	}, nil
}

func streamImage(image map[string]events.DynamoDBAttributeValue) *model.ImageRecord {
	if len(image) == 0 {
		return nil
	}
	return &model.ImageRecord{
		Name:        streamString(image, "ImageName"),
		Bucket:      streamString(image, "Bucket"),
		Description: streamString(image, "Description"),
	}
}

func streamString(avs map[string]events.DynamoDBAttributeValue, name string) string {
	av, ok := avs[name]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}

func kindOf(eventName string) (model.EventKind, error) {
	switch {
	case strings.HasPrefix(eventName, "ObjectCreated"):
		return model.KindObjectCreated, nil
	case strings.HasPrefix(eventName, "ObjectRemoved"):
		return model.KindObjectRemoved, nil
	default:
		return model.KindUnknown, parseErrf(StageObject, "unrecognized event type %q", eventName)
	}
}

// stringAttributes flattens pub/sub message attributes to plain strings.
// Attribute values arrive as {"Type": ..., "Value": ...} objects.
func stringAttributes(raw map[string]interface{}) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for name, v := range raw {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if value, ok := entry["Value"].(string); ok {
			out[name] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
