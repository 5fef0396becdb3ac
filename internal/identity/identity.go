// Package identity implements the registration, login and profile workflows:
// turning raw requests into validated, uniquely keyed users and signed
// session credentials.
package identity

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/geocoder89/worldofhackaton/internal/cache"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/notifications"
	"github.com/geocoder89/worldofhackaton/internal/observability"
	"github.com/geocoder89/worldofhackaton/internal/validation"
)

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type TokenIssuer interface {
	GenerateSessionToken(userID int64, name, role string) (string, error)
}

// Deps are the collaborators shared by the workflows. Cache, Prom and Log
// are optional.
type Deps struct {
	Users     user.Repository
	Hasher    Hasher
	Tokens    TokenIssuer
	Notifier  notifications.Notifier
	Cache     cache.Store
	Validator *validation.Validator
	Log       *slog.Logger
	Prom      *observability.Prom
}

func (d Deps) withDefaults() Deps {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return d
}

func (d Deps) record(op string, err error) {
	if d.Prom == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = apperr.KindOf(err).String()
	}
	d.Prom.ObserveIdentity(op, result)
}

func profileKey(id int64) string {
	return "users:profile:" + strconv.FormatInt(id, 10)
}

func (d Deps) cachedProfile(ctx context.Context, id int64) (user.User, bool) {
	if d.Cache == nil {
		return user.User{}, false
	}

	u, ok, err := cache.GetJSON[user.User](ctx, d.Cache, profileKey(id))
	if err != nil {
		d.Log.WarnContext(ctx, "profile cache get failed", "user_id", id, "err", err)
		return user.User{}, false
	}
	return u, ok
}

func (d Deps) storeProfile(ctx context.Context, u user.User) {
	if d.Cache == nil {
		return
	}

	if err := cache.SetJSON(ctx, d.Cache, profileKey(u.ID), u); err != nil {
		d.Log.WarnContext(ctx, "profile cache set failed", "user_id", u.ID, "err", err)
	}
}

func (d Deps) evictProfile(ctx context.Context, id int64) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Delete(ctx, profileKey(id)); err != nil {
		d.Log.WarnContext(ctx, "profile cache evict failed", "user_id", id, "err", err)
	}
}
