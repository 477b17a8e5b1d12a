// SPDX-FileCopyrightText: 2024 AlbumLab, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/albumlab/shutterbus/bus"
	"github.com/albumlab/shutterbus/envelope"
)

const maxEnvelopeBytes = 1 << 20

const subscriptionConfirmation = "SubscriptionConfirmation"

// TopicHandler accepts pub/sub notifications pushed over HTTPS and publishes
// the decoded events. A malformed envelope gets a 400 (retrying is
// pointless); a failed push delivery gets a 500 so the upstream redelivers.
type TopicHandler struct {
	router *bus.Router
	logger *zap.Logger
}

func NewTopicHandler(router *bus.Router, logger *zap.Logger) *TopicHandler {
	return &TopicHandler{
		router: router,
		logger: logger,
	}
}

func (h *TopicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var probe struct {
		Type         string `json:"Type"`
		SubscribeURL string `json:"SubscribeURL"`
	}
	if json.Unmarshal(body, &probe) == nil && probe.Type == subscriptionConfirmation {
		// Confirmation is done out of band by an operator.
		h.logger.Info("received subscription confirmation request",
			zap.String("subscribeURL", probe.SubscribeURL))
		w.WriteHeader(http.StatusOK)
		return
	}

	events, err := envelope.DecodeTopicMessage(body)
	if err != nil {
		h.logger.Error("dropping malformed pushed event", zap.Error(err))
	}
	if len(events) == 0 {
		if err != nil {
			http.Error(w, "malformed envelope", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, evt := range events {
		if h.router.Publish(r.Context(), evt).Err() != nil {
			http.Error(w, "delivery failed", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
