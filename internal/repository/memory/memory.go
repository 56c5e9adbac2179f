// Package memory implements the repository interfaces on top of maps for
// service and router tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

// DB holds the users table shared by UserRepository and TokenStore.
type DB struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func New() *DB {
	return &DB{users: make(map[string]models.User), now: time.Now}
}

func (d *DB) Users() *UserRepository { return &UserRepository{db: d} }

func (d *DB) Tokens() *TokenStore { return &TokenStore{db: d} }

func clone(u models.User) *models.User {
	u.Tokens = append(pq.StringArray{}, u.Tokens...)
	return &u
}

type UserRepository struct {
	db *DB
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.checkUniqueLocked("", user.Username, user.Email); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Tokens == nil {
		user.Tokens = pq.StringArray{}
	}
	user.CreatedAt = r.db.now()
	r.db.users[user.ID] = *clone(*user)
	return nil
}

func (d *DB) checkUniqueLocked(selfID, username, email string) error {
	for id, u := range d.users {
		if id == selfID {
			continue
		}
		if u.Username == username {
			return pkgerrors.ErrUsernameExists
		}
		if u.Email == email {
			return pkgerrors.ErrEmailExists
		}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if identifier == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	byEmail := strings.Contains(identifier, "@")
	for _, u := range r.db.users {
		if (byEmail && u.Email == identifier) || (!byEmail && u.Username == identifier) {
			return clone(u), nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]models.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		users = append(users, *clone(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *UserRepository) UpdateDetails(ctx context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[user.ID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	if err := r.db.checkUniqueLocked(user.ID, user.Username, user.Email); err != nil {
		return err
	}
	u.Username, u.Email, u.FirstName, u.LastName = user.Username, user.Email, user.FirstName, user.LastName
	r.db.users[user.ID] = u
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, salt, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	u.Salt, u.Hash = salt, hash
	r.db.users[id] = u
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return pkgerrors.ErrUserNotFound
	}
	delete(r.db.users, id)
	return nil
}

type TokenStore struct {
	db *DB
}

func (s *TokenStore) Record(ctx context.Context, userID, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[userID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	u.Tokens = append(u.Tokens, token)
	s.db.users[userID] = u
	return nil
}

func (s *TokenStore) IsActive(ctx context.Context, token string) (bool, error) {
	_, err := s.Owner(ctx, token)
	if err == pkgerrors.ErrTokenNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *TokenStore) Owner(ctx context.Context, token string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if slices.Contains(u.Tokens, token) {
			return clone(u), nil
		}
	}
	return nil, pkgerrors.ErrTokenNotFound
}

// Revoke removes every occurrence of token, matching array_remove.
func (s *TokenStore) Revoke(ctx context.Context, token string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	matched := false
	for id, u := range s.db.users {
		if !slices.Contains(u.Tokens, token) {
			continue
		}
		u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
		s.db.users[id] = u
		matched = true
	}
	return matched, nil
}

const defaultAuditLimit = 50

type AuditRepository struct {
	mu     sync.Mutex
	events []models.AuthEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, event *models.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *event)
	return nil
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = defaultAuditLimit
	}

	events := []models.AuthEvent{}
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].UserID != userID {
			continue
		}
		events = append(events, r.events[i])
		if len(events) == limit {
			break
		}
	}
	return events, nil
}
