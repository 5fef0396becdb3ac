// Package actorctx carries the authenticated caller and the request id
// through a request context.
package actorctx

import "context"

type ctxKey struct{}

type requestIDKey struct{}

type Actor struct {
	UserID int64
	Role   string
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.UserID > 0
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
