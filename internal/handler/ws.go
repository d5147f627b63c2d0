package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/store"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler handles the WebSocket live event endpoint.
type WSHandler struct {
	store  *store.MessageStore
	logger *logger.Logger
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(st *store.MessageStore, log *logger.Logger) *WSHandler {
	return &WSHandler{
		store:  st,
		logger: log,
	}
}

// wsSnapshot is the first frame on every connection. Later frames are raw
// store events; the type field discriminates.
type wsSnapshot struct {
	Type string              `json:"type"`
	Feed *model.FeedResponse `json:"feed"`
}

// Serve handles GET /api/v1/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	metrics.IncrementWSConnections()
	defer metrics.DecrementWSConnections()

	// Subscribe before the snapshot so no event in between is lost.
	subID, events := h.store.Subscribe()
	defer h.store.Unsubscribe(subID)

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(h.snapshot()); err != nil {
		conn.Close()
		return
	}

	h.writePump(conn, events, closed)
}

func (h *WSHandler) snapshot() *wsSnapshot {
	feed := &model.FeedResponse{
		Messages:    h.store.Messages(),
		UnreadCount: h.store.UnreadCount(),
		Connected:   h.store.Connected(),
	}
	if err := h.store.LastError(); err != nil {
		feed.Error = err.Error()
	}
	if feed.Messages == nil {
		feed.Messages = []model.Message{}
	}
	return &wsSnapshot{Type: "snapshot", Feed: feed}
}

// readPump drains client frames to surface disconnects and keep pong
// handling alive. Inbound payloads are ignored.
func (h *WSHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, events <-chan model.StoreEvent, closed <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return

		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
