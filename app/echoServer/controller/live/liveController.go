package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"decorrental/model"
	"decorrental/service/watcher"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is one full snapshot pushed to a client.
type Frame[T any] struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Data    []T    `json:"data"`
}

type Controller struct {
	Items    *watcher.Mirror[model.Item]
	Bookings *watcher.Mirror[model.Booking]
	Log      *slog.Logger
	// Stop ends every open stream when done; hijacked connections outlive Echo's Shutdown.
	Stop context.Context
}

// GET /v1/live/items
// @Summary      Live inventory
// @Description  WebSocket; sends the whole inventory on connect and after every change
// @Tags         live
// @Router       /v1/live/items [get]
func (h *Controller) ServeItems(c echo.Context) error {
	return serve(c, h.Stop, h.Log, "items", h.Items)
}

// GET /v1/admin/live/bookings
// @Summary      Live bookings
// @Description  WebSocket; sends every booking on connect and after every change
// @Tags         admin
// @Security     BearerAuth
// @Router       /v1/admin/live/bookings [get]
func (h *Controller) ServeBookings(c echo.Context) error {
	return serve(c, h.Stop, h.Log, "bookings", h.Bookings)
}

func serve[T any](c echo.Context, stop context.Context, log *slog.Logger, kind string, m *watcher.Mirror[T]) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Warn("websocket upgrade failed", "kind", kind, "err", err)
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	if stop != nil {
		defer context.AfterFunc(stop, cancel)()
	}

	// the client only sends control frames; a read error means it went away
	go func() {
		defer cancel()
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	updates := m.Updates(ctx)
	send := func() error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		docs, version := m.Snapshot()
		return conn.WriteJSON(Frame[T]{Type: kind, Version: version, Data: docs})
	}
	if m.Ready() {
		if err := send(); err != nil {
			return nil
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := send(); err != nil {
				log.Debug("websocket write failed", "kind", kind, "err", err)
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
