package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if limit <= 0 {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > limit {
			abortError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)

		ctx.Next()
	}
}
