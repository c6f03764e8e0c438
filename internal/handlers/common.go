package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/middleware"
)

// requireTenant extracts the SACCO and actor identifiers set by the actor
// context middleware. It writes the error response itself when either is
// missing.
func requireTenant(c *gin.Context) (saccoID, actorID string, ok bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	saccoID, ok = middleware.GetSaccoIDFromContext(c)
	if !ok {
		logger.Warn("SACCO ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	actorID, ok = middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Warn("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return saccoID, actorID, true
}

// respondServiceError maps service errors onto HTTP statuses: malformed
// input is 400, unknown resources 404, domain rule rejections 422, transient
// storage trouble 503.
func respondServiceError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInactiveAccount),
		errors.Is(err, apperrors.ErrAccountMismatch),
		errors.Is(err, apperrors.ErrNotReversible),
		errors.Is(err, apperrors.ErrUnbalanced):
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTransient):
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily unavailable, retry the request"})
	default:
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
