package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/middleware"
	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/store"
	"github.com/debot-app/debot-backend/pkg/logger"
)

// MessageHandler handles message feed endpoints.
type MessageHandler struct {
	store  *store.MessageStore
	logger *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(st *store.MessageStore, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		store:  st,
		logger: log,
	}
}

func (h *MessageHandler) feedResponse(messages []model.Message) *model.FeedResponse {
	resp := &model.FeedResponse{
		Messages:    messages,
		UnreadCount: h.store.UnreadCount(),
		Connected:   h.store.Connected(),
	}
	if err := h.store.LastError(); err != nil {
		resp.Error = err.Error()
	}
	if resp.Messages == nil {
		resp.Messages = []model.Message{}
	}
	return resp
}

// List handles GET /api/v1/messages
// Supports ?channel=C… to narrow the feed to one channel.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages := h.store.Messages()

	if channelID := r.URL.Query().Get("channel"); channelID != "" {
		if err := middleware.ValidateChannelID(channelID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := make([]model.Message, 0, len(messages))
		for _, m := range messages {
			if m.ChannelID == channelID {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}

	writeJSON(w, http.StatusOK, h.feedResponse(messages))
}

// Refresh handles POST /api/v1/messages/refresh
// The reload is synchronous but author resolution keeps running after the
// response, so names may still be placeholders.
func (h *MessageHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(r.Context()); err != nil {
		h.logger.Error("feed refresh failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, h.feedResponse(h.store.Messages()))
		return
	}

	writeJSON(w, http.StatusAccepted, h.feedResponse(h.store.Messages()))
}

// UnreadCount handles GET /api/v1/messages/unread_count
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.UnreadCountResponse{
		UnreadCount: h.store.UnreadCount(),
	})
}

// MarkAllRead handles POST /api/v1/messages/read_all
func (h *MessageHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.store.MarkAllRead()
	writeJSON(w, http.StatusOK, &model.UnreadCountResponse{
		UnreadCount: h.store.UnreadCount(),
	})
}

// MarkRead handles POST /api/v1/messages/:id/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.store.MarkRead(messageID)
	writeJSON(w, http.StatusOK, &model.UnreadCountResponse{
		UnreadCount: h.store.UnreadCount(),
	})
}

// ToggleReaction handles POST /api/v1/messages/:id/reactions
func (h *MessageHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateEmojiName(req.Emoji); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action, err := h.store.ToggleReaction(r.Context(), messageID, req.Emoji)
	if err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error("reaction toggle failed",
			zap.String("message_id", messageID),
			zap.String("emoji", req.Emoji),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "failed to toggle reaction")
		return
	}

	writeJSON(w, http.StatusOK, &model.ToggleReactionResponse{Action: action})
}

// Thread handles GET /api/v1/threads/:id
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")
	if err := middleware.ValidateMessageID(parentID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages := h.store.ThreadMessages(parentID)
	if len(messages) == 0 {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	writeJSON(w, http.StatusOK, &model.ThreadResponse{Messages: messages})
}
