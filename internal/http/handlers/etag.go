package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with a content hash ETag and answers
// 304 when the client already holds the same representation.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(b)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	// profiles are per-caller
	ctx.Header("Cache-Control", "private, no-cache")

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", b)
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || currentETag == "" {
		return false
	}

	if headerValue == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

// weak validators (W/"abc") compare equal to their strong form
func normalizeETag(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "W/")
}
