package user

import (
	"context"
	"errors"
	"time"
)

const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellido1    string    `json:"apellido1"`
	Apellido2    string    `json:"apellido2"`
	DNI          string    `json:"dni"`
	Nick         string    `json:"nick"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
	ErrNickTaken  = errors.New("nick already in use")
)

type RegisterRequest struct {
	Nombre         string `json:"nombre" validate:"required"`
	Apellido1      string `json:"apellido1" validate:"required"`
	Apellido2      string `json:"apellido2" validate:"required"`
	DNI            string `json:"dni" validate:"required,len=9"`
	Nick           string `json:"nick" validate:"required,alphanum,min=6,max=15"`
	Email          string `json:"email" validate:"required,email"`
	RepeatEmail    string `json:"repeatEmail" validate:"eqfield=Email"`
	Password       string `json:"password" validate:"required,min=4,max=20,maxbytes=72"`
	RepeatPassword string `json:"repeatPassword" validate:"eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=20,maxbytes=72"`
}

// UpdateRequest is a partial update: nil fields are left untouched, present
// fields follow the same rules as registration.
type UpdateRequest struct {
	Nombre    *string `json:"nombre" validate:"omitnil,min=1"`
	Apellido1 *string `json:"apellido1" validate:"omitnil,min=1"`
	Apellido2 *string `json:"apellido2" validate:"omitnil,min=1"`
	DNI       *string `json:"dni" validate:"omitnil,len=9"`
	Nick      *string `json:"nick" validate:"omitnil,alphanum,min=6,max=15"`
	Email     *string `json:"email" validate:"omitnil,email"`
	Password  *string `json:"password" validate:"omitnil,min=4,max=20,maxbytes=72"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.Nombre == nil && r.Apellido1 == nil && r.Apellido2 == nil &&
		r.DNI == nil && r.Nick == nil && r.Email == nil && r.Password == nil
}

// NewUser carries the fields of a user about to be created. Password is
// already hashed by the time it reaches the repository.
type NewUser struct {
	Nombre       string
	Apellido1    string
	Apellido2    string
	DNI          string
	Nick         string
	Email        string
	PasswordHash string
	Role         string
}

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByNick(ctx context.Context, nick string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, nu NewUser) (int64, error)
	Update(ctx context.Context, u User) error
}
