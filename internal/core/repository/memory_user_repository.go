package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskbill/internal/core/model"
)

type inMemoryUserRepository struct {
	users map[string]*model.User
	mutex sync.RWMutex
}

func NewInMemoryUserRepository() UserRepository {
	return &inMemoryUserRepository{
		users: make(map[string]*model.User),
	}
}

func (r *inMemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("%w: user with ID %s already exists", model.ErrConflict, user.ID)
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: user %s already exists", model.ErrConflict, user.Email)
		}
		if user.IsOwner && u.IsOwner {
			return fmt.Errorf("%w: owner account already exists", model.ErrConflict)
		}
	}

	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *inMemoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, user.ID)
	}
	for id, u := range r.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: email %s already in use", model.ErrConflict, user.Email)
		}
	}

	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *inMemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.users, id)
	return nil
}

func (r *inMemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if u, exists := r.users[id]; exists {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindOwner(_ context.Context) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, u := range r.users {
		if u.IsOwner {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) SetApproved(_ context.Context, id string, approved bool) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, exists := r.users[id]
	if !exists || u.IsApproved == approved {
		return false, nil
	}
	u.IsApproved = approved
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}
