package handler

import (
	"net/http"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	service *services.MatchService
}

func NewMatchHandler(service *services.MatchService) *MatchHandler {
	return &MatchHandler{service: service}
}

func (h *MatchHandler) Get(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	matchID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid match id")
		return
	}

	view, err := h.service.Get(c.Request.Context(), matchID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(detail(view)))
}

// List returns the caller's inbox.
func (h *MatchHandler) List(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	views, err := h.service.Inbox(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]httpdto.MatchDetailDTO, 0, len(views))
	for _, v := range views {
		out = append(out, detail(v))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *MatchHandler) UpdateStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	matchID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid match id")
		return
	}
	var req httpdto.UpdateMatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	m, err := h.service.UpdateStatus(c.Request.Context(), id, matchID, match.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMatch(m)))
}

func detail(v services.MatchView) httpdto.MatchDetailDTO {
	return httpdto.NewMatchDetail(v.Match, v.Helper, v.Receiver, v.Preview, v.Online)
}
