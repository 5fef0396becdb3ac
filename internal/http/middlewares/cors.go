package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(ctx *gin.Context) {
		if origin := ctx.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := ctx.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Request-Id")
				h.Set("Access-Control-Expose-Headers", "ETag,X-Request-Id")
				h.Add("Vary", "Origin")
			}
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
