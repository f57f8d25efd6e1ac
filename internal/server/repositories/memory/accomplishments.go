package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/models"
)

// AccomplishmentRepository implements accomplishments.Repository on top of a
// Store. The (user, day) index is maintained under the store lock, which is
// what keeps the upsert atomic.
type AccomplishmentRepository struct {
	s *Store
}

func (r *AccomplishmentRepository) List(_ context.Context, f models.AccomplishmentFilter) ([]*models.Accomplishment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Accomplishment
	for _, a := range r.s.accomplishments {
		if f.Matches(a) {
			result = append(result, copyAccomplishment(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

func (r *AccomplishmentRepository) GetByID(_ context.Context, id string) (*models.Accomplishment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accomplishments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyAccomplishment(a), nil
}

func (r *AccomplishmentRepository) GetByUserAndDate(_ context.Context, userID string, date time.Time) (*models.Accomplishment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byUserDay[dayKey(userID, date)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyAccomplishment(r.s.accomplishments[id]), nil
}

func (r *AccomplishmentRepository) SaveOrUpdateByUserDate(_ context.Context, a *models.Accomplishment) (*models.Accomplishment, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := a.LastUpdate
	if now.IsZero() {
		now = r.s.now()
	}

	key := dayKey(a.UserID, a.Date)
	if id, ok := r.s.byUserDay[key]; ok {
		existing := r.s.accomplishments[id]
		existing.Text = a.Text
		existing.LastUpdate = now
		return copyAccomplishment(existing), false, nil
	}

	c := copyAccomplishment(a)
	if c.ID == "" {
		c.ID = r.s.newID()
	}
	c.Date = a.Date.UTC()
	c.Created = now
	c.LastUpdate = now
	r.s.accomplishments[c.ID] = c
	r.s.byUserDay[key] = c.ID
	return copyAccomplishment(c), true, nil
}

func (r *AccomplishmentRepository) UpdateText(_ context.Context, id, text string, at time.Time) (*models.Accomplishment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accomplishments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	a.Text = text
	a.LastUpdate = at
	return copyAccomplishment(a), nil
}

func (r *AccomplishmentRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, a := range r.s.accomplishments {
		if a.UserID != userID {
			continue
		}
		delete(r.s.byUserDay, dayKey(a.UserID, a.Date))
		delete(r.s.accomplishments, id)
		n++
	}
	return n, nil
}
