package accomplishments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accountability/internal/server/models"
)

// Repository persists accomplishments. Dates passed in must already be
// normalized to midnight UTC.
type Repository interface {
	// List returns accomplishments matching f ordered by date, then user.
	List(ctx context.Context, f models.AccomplishmentFilter) ([]*models.Accomplishment, error)
	GetByID(ctx context.Context, id string) (*models.Accomplishment, error)
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Accomplishment, error)
	// SaveOrUpdateByUserDate inserts a, or updates text and last update of the
	// existing row for (a.UserID, a.Date). It is atomic: concurrent callers
	// for the same key never both insert. created reports which path ran.
	SaveOrUpdateByUserDate(ctx context.Context, a *models.Accomplishment) (saved *models.Accomplishment, created bool, err error)
	UpdateText(ctx context.Context, id, text string, at time.Time) (*models.Accomplishment, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
