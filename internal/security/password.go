package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor applied to every stored password.
const PasswordCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)

	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A mismatch is reported as ErrPasswordMismatch.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// Bcrypt adapts the package functions to the identity workflow's hasher.
type Bcrypt struct{}

func (Bcrypt) Hash(plain string) (string, error) { return HashPassword(plain) }

func (Bcrypt) Compare(hash, plain string) error { return CheckPassword(hash, plain) }
