package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/worldofhackaton/internal/domain/user"
)

// UsersRepo is an in-process user store. It enforces the same uniqueness
// rules as the postgres schema (case-insensitive email, exact nick).
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID: 1,
		items:  make(map[int64]user.User),
	}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByNick(ctx context.Context, nick string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Nick == nick {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(0, nu.Email, nu.Nick); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	id := r.nextID
	r.nextID++

	r.items[id] = user.User{
		ID:           id,
		Nombre:       nu.Nombre,
		Apellido1:    nu.Apellido1,
		Apellido2:    nu.Apellido2,
		DNI:          nu.DNI,
		Nick:         nu.Nick,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return id, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[u.ID]
	if !ok {
		return user.ErrNotFound
	}

	if err := r.checkUniqueLocked(u.ID, u.Email, u.Nick); err != nil {
		return err
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = u

	return nil
}

// checkUniqueLocked reports an email collision before a nick collision,
// whichever rows they belong to.
func (r *UsersRepo) checkUniqueLocked(selfID int64, email, nick string) error {
	for id, u := range r.items {
		if id != selfID && strings.EqualFold(u.Email, email) {
			return user.ErrEmailTaken
		}
	}
	for id, u := range r.items {
		if id != selfID && u.Nick == nick {
			return user.ErrNickTaken
		}
	}
	return nil
}
