package middlewares

import "github.com/gin-gonic/gin"

// abortError writes the same error envelope the handlers use.
func abortError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id, ok := c.Get(CtxRequestID); ok {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
