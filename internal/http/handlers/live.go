package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

type orderReader interface {
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
}

// LiveHandler streams realtime events of one order over a WebSocket.
type LiveHandler struct {
	orders   orderReader
	hub      subscriber
	upgrader websocket.Upgrader
	logger   logx.Logger
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(logger logx.Logger, orders orderReader, hub subscriber) *LiveHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &LiveHandler{
		orders: orders,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe handles GET /orders/{id}/live. Only parties of the order may
// join; events published before the upgrade are not replayed.
func (h *LiveHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	if _, err := h.orders.Get(r.Context(), a, id); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logx.Int64("order_id", id), logx.Err(err))
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(id)
	defer sub.Close()

	h.logger.Debug("live subscriber joined", logx.Int64("order_id", id), logx.Int64("user_id", a.ID))

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("live write failed", logx.Int64("order_id", id), logx.Err(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed and a
// closed connection is noticed.
func (h *LiveHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
