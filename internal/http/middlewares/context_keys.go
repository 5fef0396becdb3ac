package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
	ctxRoleKey   = "auth.role"
	ctxNameKey   = "auth.name"
)
