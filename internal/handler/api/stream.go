package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	models "FlowSentry/internal/domain/models"
	xhttp "FlowSentry/pkg/http"
	xlogger "FlowSentry/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamPingInterval = 30 * time.Second
	streamSendBuffer   = 16
)

// StreamHandler pushes each confirmed result to WebSocket subscribers.
// Clients subscribe per symbol via GET /api/stream?symbol=X; a slow client
// that fills its send buffer is dropped rather than blocking the broadcast.
type StreamHandler struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{} // symbol -> clients
}

type subscriber struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

func NewStreamHandler(logger *xlogger.Logger) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

// Broadcast fans a confirmed result out to that symbol's subscribers. It is
// the scheduler's notify hook and never blocks on a slow client.
func (h *StreamHandler) Broadcast(r *models.ConfirmationResult) {
	if r == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		h.logger.Error("stream marshal error", xlogger.Error(err))
		return
	}

	h.mu.RLock()
	clients := h.subs[r.Symbol]
	for sub := range clients {
		select {
		case sub.send <- b:
		default:
			sub.close()
		}
	}
	h.mu.RUnlock()
}

func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
		return err
	}

	sub := &subscriber{
		send: make(chan []byte, streamSendBuffer),
		done: make(chan struct{}),
	}
	h.subscribe(req.Symbol, sub)
	h.logger.Info("stream subscribed", xlogger.String("symbol", req.Symbol))

	// Reader only watches for close; inbound payloads are ignored.
	go func() {
		defer sub.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer func() {
		ping.Stop()
		h.unsubscribe(req.Symbol, sub)
		_ = conn.Close()
		h.logger.Info("stream unsubscribed", xlogger.String("symbol", req.Symbol))
	}()

	for {
		select {
		case <-sub.done:
			return nil
		case b := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (h *StreamHandler) subscribe(symbol string, sub *subscriber) {
	h.mu.Lock()
	if h.subs[symbol] == nil {
		h.subs[symbol] = make(map[*subscriber]struct{})
	}
	h.subs[symbol][sub] = struct{}{}
	h.mu.Unlock()
}

func (h *StreamHandler) unsubscribe(symbol string, sub *subscriber) {
	h.mu.Lock()
	if clients, ok := h.subs[symbol]; ok {
		delete(clients, sub)
		if len(clients) == 0 {
			delete(h.subs, symbol)
		}
	}
	h.mu.Unlock()
}
