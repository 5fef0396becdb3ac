package identity

import (
	"context"
	"errors"

	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/security"
)

// Issuer authenticates users and issues session credentials.
type Issuer struct {
	deps Deps
}

func NewIssuer(deps Deps) *Issuer {
	return &Issuer{deps: deps.withDefaults()}
}

func (i *Issuer) Login(ctx context.Context, req user.LoginRequest) (token string, err error) {
	defer func() { i.deps.record("login", err) }()

	if err = i.deps.Validator.Struct(req); err != nil {
		return "", err
	}

	u, err := i.deps.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", apperr.NotFound("user_not_found", "No user exists with that email")
		}
		return "", apperr.Internal("Could not log in", err)
	}

	if err = i.deps.Hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return "", apperr.Unauthorized("invalid_password", "The password is not valid")
		}
		return "", apperr.Internal("Could not log in", err)
	}

	token, err = i.deps.Tokens.GenerateSessionToken(u.ID, u.Nombre, u.Role)
	if err != nil {
		return "", apperr.Internal("Could not generate session token", err)
	}

	return token, nil
}
