// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albumlab/shutterbus/model"
)

func TestPrefixFilter(t *testing.T) {
	tcs := []struct {
		description string
		prefixes    []string
		eventType   string
		expected    bool
	}{
		{
			description: "Exact prefix",
			prefixes:    []string{"ObjectCreated:Put"},
			eventType:   "ObjectCreated:Put",
			expected:    true,
		},
		{
			description: "Wider event sub-type",
			prefixes:    []string{"ObjectCreated:"},
			eventType:   "ObjectCreated:CompleteMultipartUpload",
			expected:    true,
		},
		{
			description: "No match",
			prefixes:    []string{"ObjectCreated:Put"},
			eventType:   "ObjectRemoved:Delete",
		},
		{
			description: "Empty filter matches nothing",
			eventType:   "ObjectCreated:Put",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.description, func(t *testing.T) {
			f := PrefixFilter{Prefixes: tc.prefixes}
			assert.Equal(t, tc.expected, f.Match(model.NormalizedEvent{Type: tc.eventType}))
		})
	}
}

func TestAllowFilter(t *testing.T) {
	f := AllowFilter{Values: []string{"ObjectRemoved:Delete"}}

	assert.True(t, f.Match(model.NormalizedEvent{Type: "ObjectRemoved:Delete"}))
	assert.False(t, f.Match(model.NormalizedEvent{Type: "ObjectRemoved:DeleteMarkerCreated"}))
	assert.False(t, f.Match(model.NormalizedEvent{Type: "ObjectCreated:Put"}))
}

func TestAttributeFilter(t *testing.T) {
	f := AttributeFilter{Key: "comment_type", Allow: []string{"Description"}}

	tcs := []struct {
		description string
		attributes  map[string]string
		expected    bool
	}{
		{
			description: "Allowed value",
			attributes:  map[string]string{"comment_type": "Description"},
			expected:    true,
		},
		{
			description: "Disallowed value",
			attributes:  map[string]string{"comment_type": "Rating"},
		},
		{
			description: "Attribute absent",
			attributes:  map[string]string{"other": "Description"},
		},
		{
			description: "No attributes",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, f.Match(model.NormalizedEvent{Attributes: tc.attributes}))
		})
	}
}
