package handler

import (
	"net/http"

	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	u, err := h.service.Me(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromUser(u)))
}

func (h *UserHandler) ListHelpers(c *gin.Context) {
	var q httpdto.ListUsersRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query")
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	items, total, err := h.service.ListHelpers(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListHelpersResponse{
		Users: httpdto.FromUsers(items),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req httpdto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	in := services.UpdateProfileInput{
		Name:         req.Name,
		Bio:          req.Bio,
		City:         req.City,
		ProfileImage: req.ProfileImage,
	}
	if p := req.HelperProfile; p != nil {
		in.Helper = &services.HelperProfileInput{Skills: p.Skills, Resources: p.Resources, IsAvailable: p.IsAvailable}
	}
	if p := req.ReceiverProfile; p != nil {
		in.Receiver = &services.ReceiverProfileInput{Needs: p.Needs}
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), id.UserID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromUser(u)))
}
