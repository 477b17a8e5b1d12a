// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package model

// ImageRecord is the metadata kept for one stored image. Name doubles as the
// primary key and must match the object key in the source bucket exactly.
type ImageRecord struct {
	// Name is the fully decoded object key, unique across all buckets.
	Name string `json:"name" dynamodbav:"ImageName"`

	// Bucket is the source container the object lives in.
	Bucket string `json:"bucket" dynamodbav:"Bucket"`

	// Description is free-form text attached after upload. Optional.
	Description string `json:"description,omitempty" dynamodbav:"Description,omitempty"`
}

// EventKind classifies a normalized inbound event.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindObjectCreated
	KindObjectRemoved
	KindAttributeChanged
)

func (k EventKind) String() string {
	switch k {
	case KindObjectCreated:
		return "ObjectCreated"
	case KindObjectRemoved:
		return "ObjectRemoved"
	case KindAttributeChanged:
		return "AttributeChanged"
	default:
		return "Unknown"
	}
}

// NormalizedEvent is the internal representation of one inbound event after
// all provider envelopes have been unwrapped. ObjectKey is always fully
// percent-decoded, with '+' restored to space, before the event leaves the
// envelope package.
type NormalizedEvent struct {
	Kind EventKind

	// Type is the provider event name, e.g. "ObjectCreated:Put". Filter
	// predicates match against this string.
	Type string

	ObjectKey string
	Bucket    string

	// Attributes carries message attributes for attribute-changed events,
	// e.g. comment_type=Description.
	Attributes map[string]string

	// Description is the replacement description on attribute-changed events.
	Description string
}

// ChangeOp is the mutation type observed on the metadata store change stream.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeModify ChangeOp = "MODIFY"
	ChangeRemove ChangeOp = "REMOVE"
)

// ChangeRecord is one ordered mutation from the metadata store change stream.
type ChangeRecord struct {
	Operation ChangeOp
	Key       string

	// OldImage and NewImage are the record states around the mutation, when
	// the stream is configured to carry them.
	OldImage *ImageRecord
	NewImage *ImageRecord
}
