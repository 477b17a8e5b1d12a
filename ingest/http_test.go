// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/model"
)

func TestTopicHandler(t *testing.T) {
	tcs := []struct {
		description    string
		body           string
		deliverErr     error
		expectedStatus int
		expectedKeys   []string
	}{
		{
			description:    "Valid notification",
			body:           uploadBody("sunset.png"),
			expectedStatus: http.StatusOK,
			expectedKeys:   []string{"sunset.png"},
		},
		{
			description:    "Subscription confirmation probe",
			body:           `{"Type":"SubscriptionConfirmation","SubscribeURL":"https://example.invalid/confirm"}`,
			expectedStatus: http.StatusOK,
		},
		{
			description:    "Malformed envelope",
			body:           "not an envelope",
			expectedStatus: http.StatusBadRequest,
		},
		{
			description:    "Push delivery failure",
			body:           uploadBody("sunset.png"),
			deliverErr:     errors.New("store unavailable"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.description, func(t *testing.T) {
			var published []string
			router := testRouter(t, func(_ context.Context, evt model.NormalizedEvent) error {
				if tc.deliverErr != nil {
					return tc.deliverErr
				}
				published = append(published, evt.ObjectKey)
				return nil
			})
			h := NewTopicHandler(router, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()
			h.ServeHTTP(recorder, req)

			assert.Equal(t, tc.expectedStatus, recorder.Code)
			if tc.expectedKeys != nil {
				require.Equal(t, tc.expectedKeys, published)
			}
		})
	}
}
