package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/middleware"
	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/store"
	"github.com/debot-app/debot-backend/pkg/logger"
)

// ChannelHandler handles channel endpoints.
type ChannelHandler struct {
	store  *store.MessageStore
	logger *logger.Logger
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(st *store.MessageStore, log *logger.Logger) *ChannelHandler {
	return &ChannelHandler{
		store:  st,
		logger: log,
	}
}

// List handles GET /api/v1/channels
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	channels := h.store.Channels()
	if channels == nil {
		channels = []model.Channel{}
	}

	writeJSON(w, http.StatusOK, &model.ListChannelsResponse{
		Channels: channels,
		Total:    len(channels),
	})
}

// Send handles POST /api/v1/channels/:id/messages
func (h *ChannelHandler) Send(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	if err := middleware.ValidateChannelID(channelID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.store.Send(r.Context(), channelID, req.Text)
	if err != nil {
		h.logger.Error("message send failed",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{ID: id})
}
