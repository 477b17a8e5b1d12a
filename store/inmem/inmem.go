// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"sync"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
)

// InMem is a map-backed store.S for tests and local development.
type InMem struct {
	lock sync.Mutex
	data map[string]model.ImageRecord
}

func NewInMem() *InMem {
	return &InMem{
		data: map[string]model.ImageRecord{},
	}
}

func (i *InMem) Put(_ context.Context, record model.ImageRecord) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.data[record.Name] = record
	return nil
}

func (i *InMem) Get(_ context.Context, name string) (model.ImageRecord, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	record, ok := i.data[name]
	if !ok {
		return model.ImageRecord{}, store.RecordOperationError{Err: store.ErrRecordNotFound, Name: name, Operation: store.ReadType}
	}
	return record, nil
}

func (i *InMem) UpdateDescription(_ context.Context, name, description string) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	record, ok := i.data[name]
	if !ok {
		return store.RecordOperationError{Err: store.ErrRecordNotFound, Name: name, Operation: store.UpdateType}
	}
	record.Description = description
	i.data[name] = record
	return nil
}

func (i *InMem) Delete(_ context.Context, name string) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	delete(i.data, name)
	return nil
}

// Len reports how many records are stored.
func (i *InMem) Len() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	return len(i.data)
}
