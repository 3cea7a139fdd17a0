package handler

import (
	"errors"
	"net/http"

	"helpbridge/internal/transport/httpdto"
	helpbridge_errors "helpbridge/pkg/errors"
	"helpbridge/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{helpbridge_errors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{helpbridge_errors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{helpbridge_errors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{helpbridge_errors.ErrInvalidOperation, http.StatusBadRequest, "INVALID_OPERATION"},
	{helpbridge_errors.ErrDuplicatePending, http.StatusBadRequest, "DUPLICATE_PENDING"},
	{helpbridge_errors.ErrInvalidState, http.StatusBadRequest, "INVALID_STATE"},
	{helpbridge_errors.ErrInvalidInput, http.StatusBadRequest, "INVALID_REQUEST"},
	{helpbridge_errors.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
	{helpbridge_errors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{helpbridge_errors.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

func lookup(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// ErrorStatus maps an error kind to its HTTP status and response code.
func ErrorStatus(err error) (int, string) {
	if m, ok := lookup(err); ok {
		return m.status, m.code
	}
	return http.StatusInternalServerError, "INTERNAL_FAILURE"
}

// writeError renders err. Internal failures are logged and reported without
// their cause.
func writeError(c *gin.Context, err error) {
	m, ok := lookup(err)
	if !ok {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal failure", "INTERNAL_FAILURE"))
		return
	}
	c.JSON(m.status, httpdto.NewErrorResponse(m.kind.Error(), m.code))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg, "INVALID_REQUEST"))
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}
