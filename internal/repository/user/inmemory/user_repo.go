package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
)

type UserStorage struct {
	storage map[uuid.UUID]*user.User
	byEmail map[string]uuid.UUID
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]uuid.UUID),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.byEmail[userToCreate.Email]; ok {
		return repo.ErrEmailTaken
	}

	userToCreate.CreatedAt = time.Now()
	s.storage[userToCreate.UUID] = cloneUser(userToCreate)
	s.byEmail[userToCreate.Email] = userToCreate.UUID
	return nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneUser(s.storage[id]), nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	userToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneUser(userToGet), nil
}

func cloneUser(u *user.User) *user.User {
	clone := *u
	clone.Roles = make([]user.Role, len(u.Roles))
	copy(clone.Roles, u.Roles)
	return &clone
}
