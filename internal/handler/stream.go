package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/slack"
	"github.com/debot-app/debot-backend/internal/store"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

// StreamHandler handles the SSE streaming endpoint.
type StreamHandler struct {
	store  *store.MessageStore
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(st *store.MessageStore, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		store:  st,
		logger: log,
	}
}

// ReplayCompleteEvent marks the end of the snapshot replay.
type ReplayCompleteEvent struct {
	MessageCount int `json:"message_count"`
	UnreadCount  int `json:"unread_count"`
}

// Stream handles GET /api/v1/stream
// The current feed snapshot is replayed first, then live store events
// follow until the client disconnects.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// Subscribe before replaying so no event between snapshot and live
	// phase is lost.
	subID, events := h.store.Subscribe()
	defer h.store.Unsubscribe(subID)

	done := ctx.Done()

	sendSSEEvent(w, flusher, "connected", map[string]bool{
		"connected": h.store.Connected(),
	})

	if err := h.store.LastError(); err != nil {
		sendSSEEvent(w, flusher, "error", errorEvent(err))
	}

	messages := h.store.Messages()
	for _, msg := range messages {
		select {
		case <-done:
			return
		default:
		}
		sendSSEEvent(w, flusher, "message", msg)
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		MessageCount: len(messages),
		UnreadCount:  h.store.UnreadCount(),
	})

	h.logger.Info("SSE replay complete",
		zap.Int("messages_replayed", len(messages)),
	)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("SSE client disconnected")
			return

		case ev, open := <-events:
			if !open {
				return
			}
			sendSSEEvent(w, flusher, string(ev.Type), ev)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

// errorEvent classifies a store failure for the wire. Remote API error
// codes pass through verbatim.
func errorEvent(err error) *model.ErrorEvent {
	ev := &model.ErrorEvent{Code: "internal_error", Message: err.Error()}

	var apiErr *slack.APIError
	var transportErr *slack.TransportError
	switch {
	case errors.Is(err, slack.ErrNotAuthenticated):
		ev.Code = "not_authenticated"
	case errors.As(err, &apiErr):
		ev.Code = apiErr.Code
	case errors.As(err, &transportErr):
		ev.Code = "transport_error"
	}
	return ev
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
