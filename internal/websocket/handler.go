package websocket

import (
	"context"
	"net/http"

	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub        *Hub
	authorizer RoomAuthorizer
	presence   Presence
	upgrader   websocket.Upgrader
	log        *WebSocketLogger
}

// NewHandler builds the /ws endpoint. An empty origins list accepts any origin.
func NewHandler(hub *Hub, authorizer RoomAuthorizer, origins []string) *Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub:        hub,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: NewWebSocketLogger(),
	}
}

// WithPresence makes every session report itself to p.
func (h *Handler) WithPresence(p Presence) *Handler {
	h.presence = p
	return h
}

// Connect upgrades an authenticated request. The identity is put on the
// request context by the auth middleware, which accepts ?token= for browsers.
func (h *Handler) Connect(c *gin.Context) {
	id, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade_failed", id.UserID, "", zap.Error(err))
		return
	}

	// The request context ends with the handler; sessions outlive it.
	ctx := context.WithoutCancel(c.Request.Context())
	client := NewClient(h.hub, h.authorizer, conn, id.UserID)
	client.presence = h.presence
	client.Serve(ctx)
}
