package db

import (
	"context"
	"errors"

	"github.com/geocoder89/worldofhackaton/internal/config"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/security"
)

// EnsureAdminUser creates the bootstrap admin from ADMIN_* settings. It is a
// no-op when the settings are absent or the email already exists.
func EnsureAdminUser(ctx context.Context, users user.Repository, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, user.NewUser{
		Nombre:       cfg.AdminName,
		Apellido1:    "-",
		Apellido2:    "-",
		DNI:          "000000000",
		Nick:         cfg.AdminNick,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         cfg.AdminRole,
	})

	// another replica got there first
	if errors.Is(err, user.ErrEmailTaken) || errors.Is(err, user.ErrNickTaken) {
		return nil
	}

	return err
}
