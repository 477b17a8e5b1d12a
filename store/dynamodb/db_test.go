// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
	"github.com/albumlab/shutterbus/store"
	"github.com/albumlab/shutterbus/store/metric"
)

func testMeasures() metric.Measures {
	return metric.Measures{
		QuerySuccessCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_query_success_count",
		}, []string{store.TypeLabel}),
		QueryFailureCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_query_failure_count",
		}, []string{store.TypeLabel}),
	}
}

func TestDynamoClientCountsQueries(t *testing.T) {
	svc := new(MockService)
	measures := testMeasures()
	client := &DynamoClient{
		client:   svc,
		logger:   zap.NewNop(),
		measures: measures,
	}

	svc.On("Push", model.ImageRecord{Name: "sunset.png"}).Return(nil).Once()
	svc.On("Get", "sunset.png").Return(model.ImageRecord{Name: "sunset.png"}, nil).Once()
	svc.On("Update", "sunset.png", "dusk").Return(nil).Once()
	svc.On("Delete", "sunset.png").Return(errors.New("throttled")).Once()

	require.NoError(t, client.Put(context.Background(), model.ImageRecord{Name: "sunset.png"}))

	record, err := client.Get(context.Background(), "sunset.png")
	require.NoError(t, err)
	assert.Equal(t, "sunset.png", record.Name)

	require.NoError(t, client.UpdateDescription(context.Background(), "sunset.png", "dusk"))
	assert.Error(t, client.Delete(context.Background(), "sunset.png"))

	assert.Equal(t, float64(1), testutil.ToFloat64(
		measures.QuerySuccessCount.WithLabelValues(store.InsertType)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		measures.QuerySuccessCount.WithLabelValues(store.ReadType)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		measures.QuerySuccessCount.WithLabelValues(store.UpdateType)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		measures.QueryFailureCount.WithLabelValues(store.DeleteType)))

	svc.AssertExpectations(t)
}

func TestNewDynamoClientDefaultsTable(t *testing.T) {
	s, err := NewDynamoClient(Config{Region: "us-east-1"}, metric.Measures{}, zap.NewNop())
	require.NoError(t, err)

	client, ok := s.(*DynamoClient)
	require.True(t, ok)
	assert.Equal(t, defaultTable, client.config.Table)
}
