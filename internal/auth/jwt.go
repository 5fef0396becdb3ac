package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of every issued session credential.
const SessionTTL = 30 * 24 * time.Hour

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnexpectedAlg   = errors.New("unexpected signing method")
	ErrMissingIdentity = errors.New("token carries no identity")
)

// Claims is the snapshot of a user embedded in a session credential.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

func (m *Manager) GenerateSessionToken(userID int64, name, role string) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedAlg
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySessionToken checks signature and expiry and requires a subject id.
func (m *Manager) VerifySessionToken(tokenStr string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, ErrMissingIdentity
	}
	return claims, nil
}
