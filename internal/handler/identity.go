package handler

import (
	"net/http"

	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// identity returns the caller or writes 401 and reports false.
func identity(c *gin.Context) (services.Identity, bool) {
	id, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return services.Identity{}, false
	}
	return id, true
}
