package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/worldofhackaton/internal/actorctx"
	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := actorctx.RequestID(ctx.Request.Context()); id != "" {
		return id
	}

	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondAppError logs the raw failure and writes its client-safe envelope.
// Internal failures never leak their cause to the client.
func RespondAppError(ctx *gin.Context, log *slog.Logger, op string, err error) {
	appErr := apperr.As(err)
	status := apperr.HTTPStatus(appErr)

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(ctx.Request.Context(), level, "request failed",
		"op", op,
		"kind", appErr.Kind.String(),
		"status", status,
		"err", err,
	)

	RespondError(ctx, status, appErr.Code, appErr.Message, appErr.Details)
}
