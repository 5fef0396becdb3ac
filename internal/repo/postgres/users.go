package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// constraint names from migrations/00001_create_users.sql
const (
	constraintEmailUnique = "users_email_lower_key"
	constraintNickUnique  = "users_nick_key"
)

const userColumns = `id, nombre, apellido1, apellido2, dni, nick, email, password_hash, role, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// mapWriteErr turns the store's unique constraints into domain errors. The
// constraints are the authoritative uniqueness check; application pre-checks
// only order the error messages.
func mapWriteErr(err error) error {
	if !IsUniqueViolation(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case constraintEmailUnique:
			return user.ErrEmailTaken
		case constraintNickUnique:
			return user.ErrNickTaken
		}
	}
	return err
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Nombre,
		&u.Apellido1,
		&u.Apellido2,
		&u.DNI,
		&u.Nick,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// getOne runs a single row lookup and reports a missing row as user.ErrNotFound.
func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]user.User, 0)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `lower(email) = lower($1)`, email)
}

func (r *UsersRepo) GetByNick(ctx context.Context, nick string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_nick", `nick = $1`, nick)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `id = $1`, id)
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (int64, error) {
	var id int64

	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(ctx, `
		INSERT INTO users (nombre, apellido1, apellido2, dni, nick, email, password_hash, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING id
	`, nu.Nombre, nu.Apellido1, nu.Apellido2, nu.DNI, nu.Nick, nu.Email, nu.PasswordHash, nu.Role).Scan(&id)
	})

	if err != nil {
		return 0, mapWriteErr(err)
	}
	return id, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) error {
	var tag pgconn.CommandTag

	err := r.observe("users.update", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
		UPDATE users
		SET nombre = $1,
		    apellido1 = $2,
		    apellido2 = $3,
		    dni = $4,
		    nick = $5,
		    email = $6,
		    password_hash = $7,
		    updated_at = NOW()
		WHERE id = $8
	`, u.Nombre, u.Apellido1, u.Apellido2, u.DNI, u.Nick, u.Email, u.PasswordHash, u.ID)
		return err
	})

	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
