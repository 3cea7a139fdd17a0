package handler

import (
	"context"
	"net/http"

	"helpbridge/internal/domain/request"
	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	service *services.RequestService
}

func NewRequestHandler(service *services.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

func (h *RequestHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req httpdto.CreateHelpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	helperID, err := parseUUID(req.HelperID)
	if err != nil {
		badRequest(c, "invalid helperId")
		return
	}

	hr, err := h.service.Create(c.Request.Context(), id.UserID, services.CreateRequestInput{
		HelperID: helperID,
		Category: req.Category,
		Reason:   req.Reason,
		Details:  req.Details,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromHelpRequest(hr)))
}

func (h *RequestHandler) MyRequests(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromHelpRequests(items)))
}

func (h *RequestHandler) Accept(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	requestID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid request id")
		return
	}

	m, err := h.service.Accept(c.Request.Context(), requestID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AcceptRequestResponse{Match: httpdto.FromMatch(m)}))
}

func (h *RequestHandler) Decline(c *gin.Context) {
	h.transition(c, h.service.Decline)
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *RequestHandler) transition(c *gin.Context, fn func(ctx context.Context, requestID, actorID uuid.UUID) (request.HelpRequest, error)) {
	id, ok := identity(c)
	if !ok {
		return
	}
	requestID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid request id")
		return
	}

	hr, err := fn(c.Request.Context(), requestID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromHelpRequest(hr)))
}
