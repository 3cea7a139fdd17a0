package handler

import (
	"net/http"

	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	matchID, err := parseUUID(req.MatchID)
	if err != nil {
		badRequest(c, "invalid matchId")
		return
	}

	msg, err := h.service.Send(c.Request.Context(), matchID, id.UserID, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

func (h *MessageHandler) History(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	matchID, err := parseUUID(c.Param("matchId"))
	if err != nil {
		badRequest(c, "invalid matchId")
		return
	}

	msgs, err := h.service.History(c.Request.Context(), matchID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessages(msgs)))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	matchID, err := parseUUID(c.Param("matchId"))
	if err != nil {
		badRequest(c, "invalid matchId")
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), matchID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MarkReadResponse{Updated: n}))
}
