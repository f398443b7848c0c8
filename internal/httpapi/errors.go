package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartattendance/internal/attendance"
	"smartattendance/internal/auth"
	"smartattendance/internal/faces"
	"smartattendance/internal/identity"
	"smartattendance/internal/session"
)

// writeError maps domain errors to a status and a {"error": msg} body.
// Storage failures are logged and reported without detail.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, session.ErrExpired):
		return http.StatusBadRequest, "session expired or inactive"
	case errors.Is(err, attendance.ErrStudentNotFound), errors.Is(err, identity.ErrNotFound):
		return http.StatusNotFound, "student not found"
	case errors.Is(err, attendance.ErrInvalidInput), errors.Is(err, session.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, faces.ErrInvalidImage):
		return http.StatusBadRequest, "invalid image data"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
