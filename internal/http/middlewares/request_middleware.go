package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/worldofhackaton/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(actorctx.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()
	}
}

// RequestLogger writes one line per request. request_id and the caller are
// stamped from the request context by the logger's handler.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		ctx.Next()

		status := ctx.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		log.Log(ctx.Request.Context(), level, "http_request",
			"method", ctx.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", ctx.Writer.Size(),
			"client_ip", ctx.ClientIP(),
		)
	}
}
