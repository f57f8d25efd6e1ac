package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/models"
)

// UserRepository implements users.Repository on top of a Store.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) List(_ context.Context, f models.UserFilter) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.User
	for _, u := range r.s.users {
		if f.Matches(u) {
			result = append(result, copyUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r *UserRepository) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.byEmail[u.Email]; taken {
		return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
	}

	c := copyUser(u)
	if c.ID == "" {
		c.ID = r.s.newID()
	}
	if _, exists := r.s.users[c.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate id", common.ErrConflict)
	}
	r.s.users[c.ID] = c
	r.s.byEmail[c.Email] = c.ID
	return copyUser(c), nil
}

func (r *UserRepository) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.users[u.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if owner, taken := r.s.byEmail[u.Email]; taken && owner != u.ID {
		return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
	}

	delete(r.s.byEmail, old.Email)
	c := copyUser(u)
	r.s.users[c.ID] = c
	r.s.byEmail[c.Email] = c.ID
	return copyUser(c), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	delete(r.s.byEmail, u.Email)
	delete(r.s.users, id)
	return nil
}
