package users

import (
	"context"

	"github.com/dmitrijs2005/accountability/internal/server/models"
)

// Repository persists users. Implementations return common.ErrNotFound for
// missing rows, common.ErrConflict for a duplicate email and wrap
// infrastructure failures with common.ErrStore.
type Repository interface {
	// List returns users matching f ordered by first name, then id.
	List(ctx context.Context, f models.UserFilter) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create assigns a new ID when u.ID is empty.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
