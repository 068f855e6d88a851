// Package user stores dashboard operators.
package user

import (
	"context"
	"strings"
	"sync"

	"kycdesk/internal/auth/models"
	"kycdesk/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users keyed by ID with a lowercase username index.
type InMemoryUserStore struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	byUsername map[string]int64
	nextID     int64
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:      make(map[int64]*models.User),
		byUsername: make(map[string]int64),
	}
}

// Create assigns the ID and role: the first user becomes an admin.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Username)
	if _, taken := s.byUsername[key]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	user.ID = s.nextID
	user.Role = models.RoleUser
	if len(s.users) == 0 {
		user.Role = models.RoleAdmin
	}
	cp := *user
	s.users[user.ID] = &cp
	s.byUsername[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}
