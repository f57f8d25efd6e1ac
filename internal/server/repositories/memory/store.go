// Package memory keeps users and accomplishments in process memory. It backs
// the "memory" storage mode and the behavioral tests of the layers above.
package memory

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/google/uuid"
)

type userDay struct {
	userID string
	day    string
}

// Store is safe for concurrent use. Records are copied on the way in and out,
// so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	users   map[string]*models.User
	byEmail map[string]string

	accomplishments map[string]*models.Accomplishment
	byUserDay       map[userDay]string

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock overrides the time source used for Created/LastUpdate.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the identifier generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		users:           make(map[string]*models.User),
		byEmail:         make(map[string]string),
		accomplishments: make(map[string]*models.Accomplishment),
		byUserDay:       make(map[userDay]string),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Accomplishments returns the accomplishment repository view of the store.
func (s *Store) Accomplishments() *AccomplishmentRepository {
	return &AccomplishmentRepository{s: s}
}

func dayKey(userID string, date time.Time) userDay {
	return userDay{userID: userID, day: date.UTC().Format(common.DayLayout)}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.LastLoginDate != nil {
		t := *u.LastLoginDate
		c.LastLoginDate = &t
	}
	return &c
}

func copyAccomplishment(a *models.Accomplishment) *models.Accomplishment {
	c := *a
	return &c
}
