// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"strings"

	"github.com/albumlab/shutterbus/model"
)

// Filter decides whether a subscription wants a given event. Filters are
// evaluated in-process; they mirror the declarative filter policies of the
// upstream pub/sub transport without being tied to its syntax.
type Filter interface {
	Match(evt model.NormalizedEvent) bool
}

// PrefixFilter matches events whose provider type starts with any of the
// configured prefixes, e.g. "ObjectCreated:" to mean any create sub-type.
type PrefixFilter struct {
	Prefixes []string
}

func (f PrefixFilter) Match(evt model.NormalizedEvent) bool {
	for _, prefix := range f.Prefixes {
		if strings.HasPrefix(evt.Type, prefix) {
			return true
		}
	}
	return false
}

// AllowFilter matches events whose provider type equals one of the allowed
// values exactly.
type AllowFilter struct {
	Values []string
}

func (f AllowFilter) Match(evt model.NormalizedEvent) bool {
	for _, value := range f.Values {
		if evt.Type == value {
			return true
		}
	}
	return false
}

// AttributeFilter matches events carrying a message attribute whose value is
// in the allow list. Events without the attribute never match.
type AttributeFilter struct {
	Key   string
	Allow []string
}

func (f AttributeFilter) Match(evt model.NormalizedEvent) bool {
	value, ok := evt.Attributes[f.Key]
	if !ok {
		return false
	}
	for _, allowed := range f.Allow {
		if value == allowed {
			return true
		}
	}
	return false
}
