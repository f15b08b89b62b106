package ws

import (
	"context"
	"errors"
	"net/http"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/pkg/http/middleware"
	applogger "SumReport/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// TableReader supplies the table sent to a client right after it connects.
type TableReader interface {
	Stored(ctx context.Context) (*models.Table, error)
}

// Handler upgrades /ws requests and registers clients with the hub.
type Handler struct {
	hub      *Hub
	tables   TableReader
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

// NewHandler creates the websocket handler. An empty allowedOrigins accepts any origin.
func NewHandler(hub *Hub, tables TableReader, allowedOrigins []string, l *applogger.Logger) *Handler {
	if l == nil {
		l = applogger.Nop()
	}
	cors := middleware.CORSConfig{AllowOrigins: allowedOrigins}
	return &Handler{
		hub:    hub,
		tables: tables,
		l:      l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || cors.Allowed(origin)
			},
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
		l:    h.l,
	}
	if h.tables != nil {
		tbl, err := h.tables.Stored(c.Request().Context())
		switch {
		case err == nil:
			if b, err := encode(tbl); err == nil {
				client.send <- b
			}
		case !errors.Is(err, domrepo.ErrTableNotFound):
			h.l.Warn("ws initial table", applogger.Error(err))
		}
	}
	if !h.hub.join(client) {
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}
