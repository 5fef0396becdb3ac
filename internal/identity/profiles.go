package identity

import (
	"context"
	"errors"

	"github.com/geocoder89/worldofhackaton/internal/actorctx"
	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
)

// Profiles reads and updates existing users.
type Profiles struct {
	deps Deps
}

func NewProfiles(deps Deps) *Profiles {
	return &Profiles{deps: deps.withDefaults()}
}

func (p *Profiles) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := p.deps.Users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Could not list users", err)
	}
	return users, nil
}

// GetUserInfo returns the user behind a verified credential.
func (p *Profiles) GetUserInfo(ctx context.Context, subjectID int64) (user.User, error) {
	if subjectID <= 0 {
		return user.User{}, apperr.Validation("Invalid subject id", nil)
	}

	if u, ok := p.deps.cachedProfile(ctx, subjectID); ok {
		return u, nil
	}

	u, err := p.deps.Users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.NotFound("user_not_found", "User not found")
		}
		return user.User{}, apperr.Internal("Could not fetch user", err)
	}

	p.deps.storeProfile(ctx, u)
	return u, nil
}

// UpdateUser applies the present fields of req to the target. The caller in
// ctx must be the target itself or an admin, checked before the body is
// validated. Uniqueness of a changed email
// or nick is left to the store.
func (p *Profiles) UpdateUser(ctx context.Context, targetID int64, req user.UpdateRequest) (id int64, err error) {
	defer func() { p.deps.record("update", err) }()

	if targetID <= 0 {
		return 0, apperr.Validation("Invalid user id", nil)
	}

	actor, ok := actorctx.From(ctx)
	if !ok {
		return 0, apperr.Unauthorized("unauthorized", "Missing identity")
	}
	if actor.UserID != targetID && actor.Role != user.RoleAdmin {
		return 0, apperr.Forbidden("forbidden", "You can only update your own profile")
	}

	if err = p.deps.Validator.Struct(req); err != nil {
		return 0, err
	}

	u, err := p.deps.Users.GetByID(ctx, targetID)
	if err != nil {
		return 0, mapUserWriteErr(err, "Could not update user")
	}

	if err = p.apply(&u, req); err != nil {
		return 0, err
	}

	if err = p.deps.Users.Update(ctx, u); err != nil {
		return 0, mapUserWriteErr(err, "Could not update user")
	}

	p.deps.evictProfile(ctx, targetID)

	return targetID, nil
}

func (p *Profiles) apply(u *user.User, req user.UpdateRequest) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&u.Nombre, req.Nombre)
	set(&u.Apellido1, req.Apellido1)
	set(&u.Apellido2, req.Apellido2)
	set(&u.DNI, req.DNI)
	set(&u.Nick, req.Nick)
	set(&u.Email, req.Email)

	if req.Password != nil {
		hash, err := p.deps.Hasher.Hash(*req.Password)
		if err != nil {
			return mapHashErr(err, "Could not update user")
		}
		u.PasswordHash = hash
	}
	return nil
}
