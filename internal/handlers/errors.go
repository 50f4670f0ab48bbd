package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// respondError maps a service error to its status. Server-side failures hide the cause behind fallback.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	kind := apperrors.Kind(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()), slog.Int("status", status))
		msg := fallback
		if status == http.StatusBadGateway {
			msg = fallback + ": upstream service unavailable"
		}
		c.JSON(status, ErrorResponse{Error: msg, Kind: kind})
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()), slog.String("kind", kind))
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func respondBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error(), Kind: "validation"})
}

// actorFromContext returns the authenticated user or writes a 401.
func actorFromContext(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Kind: "unauthorized"})
		return "", false
	}
	return userID, true
}
