package identity

import (
	"context"
	"errors"

	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/notifications"
	"github.com/geocoder89/worldofhackaton/internal/security"
)

// Registrar creates new users.
type Registrar struct {
	deps Deps
}

func NewRegistrar(deps Deps) *Registrar {
	return &Registrar{deps: deps.withDefaults()}
}

// Register validates the candidate, checks email then nick for collisions,
// stores a bcrypt hash and returns the new user id. The welcome email is
// best effort: its failure is logged and never returned.
func (r *Registrar) Register(ctx context.Context, req user.RegisterRequest) (id int64, err error) {
	defer func() { r.deps.record("register", err) }()

	if err = r.deps.Validator.Struct(req); err != nil {
		return 0, err
	}

	if err = r.ensureAvailable(ctx, req.Email, req.Nick); err != nil {
		return 0, err
	}

	hash, err := r.deps.Hasher.Hash(req.Password)
	if err != nil {
		return 0, mapHashErr(err, "Could not create user")
	}

	id, err = r.deps.Users.Create(ctx, user.NewUser{
		Nombre:       req.Nombre,
		Apellido1:    req.Apellido1,
		Apellido2:    req.Apellido2,
		DNI:          req.DNI,
		Nick:         req.Nick,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RoleReader,
	})
	if err != nil {
		return 0, mapUserWriteErr(err, "Could not create user")
	}

	r.deps.Log.InfoContext(ctx, "user registered", "user_id", id)

	r.sendWelcome(ctx, id, req)

	return id, nil
}

// ensureAvailable reports the first collision only, email before nick.
func (r *Registrar) ensureAvailable(ctx context.Context, email, nick string) error {
	_, err := r.deps.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return emailTaken()
	case !errors.Is(err, user.ErrNotFound):
		return apperr.Internal("Could not create user", err)
	}

	_, err = r.deps.Users.GetByNick(ctx, nick)
	switch {
	case err == nil:
		return nickTaken()
	case !errors.Is(err, user.ErrNotFound):
		return apperr.Internal("Could not create user", err)
	}

	return nil
}

func (r *Registrar) sendWelcome(ctx context.Context, id int64, req user.RegisterRequest) {
	if r.deps.Notifier == nil {
		return
	}

	// the request may finish before the provider answers
	sendCtx := context.WithoutCancel(ctx)

	err := r.deps.Notifier.SendWelcome(sendCtx, notifications.WelcomeInput{
		Email: req.Email,
		Name:  req.Nombre,
	})
	if err != nil {
		r.deps.Log.WarnContext(ctx, "welcome notification failed", "user_id", id, "err", err)
	}
}

func emailTaken() error {
	return apperr.Conflict("email_taken", "A user with that email already exists")
}

func nickTaken() error {
	return apperr.Conflict("nick_taken", "A user with that nick already exists")
}

func mapUserWriteErr(err error, internalMsg string) error {
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		return emailTaken()
	case errors.Is(err, user.ErrNickTaken):
		return nickTaken()
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("user_not_found", "User not found")
	default:
		return apperr.Internal(internalMsg, err)
	}
}

func mapHashErr(err error, internalMsg string) error {
	if errors.Is(err, security.ErrPasswordTooLong) {
		return apperr.Validation("Password must be at most 72 bytes", nil)
	}
	return apperr.Internal(internalMsg, err)
}
