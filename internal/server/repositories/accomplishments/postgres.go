// Package accomplishments provides the PostgreSQL-backed accomplishment
// repository.
package accomplishments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/dbx"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, date, user_id, text, created, last_update`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner, extra ...any) (*models.Accomplishment, error) {
	a := &models.Accomplishment{}
	dest := append([]any{&a.ID, &a.Date, &a.UserID, &a.Text, &a.Created, &a.LastUpdate}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Date = a.Date.UTC()
	return a, nil
}

func dbError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", common.ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", common.ErrStore, err)
}

func (r *PostgresRepository) List(ctx context.Context, f models.AccomplishmentFilter) ([]*models.Accomplishment, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := `SELECT ` + columns + ` FROM accomplishments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date, user_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var result []*models.Accomplishment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, dbError(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Accomplishment, error) {
	query := `SELECT ` + columns + ` FROM accomplishments WHERE id = $1`

	a, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Accomplishment, error) {
	query := `SELECT ` + columns + ` FROM accomplishments WHERE user_id = $1 AND date = $2`

	a, err := scan(r.db.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		return nil, dbError(err)
	}
	return a, nil
}

// SaveOrUpdateByUserDate relies on the (date, user_id) unique constraint:
// the second of two racing inserts turns into an update of the first row.
// xmax is zero only for a freshly inserted tuple.
func (r *PostgresRepository) SaveOrUpdateByUserDate(ctx context.Context, a *models.Accomplishment) (*models.Accomplishment, bool, error) {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := a.LastUpdate
	if now.IsZero() {
		now = time.Now().UTC()
	}

	query :=
		`INSERT INTO accomplishments (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (date, user_id)
		 DO UPDATE SET text = EXCLUDED.text, last_update = EXCLUDED.last_update
		 RETURNING ` + columns + `, (xmax = 0) AS inserted`

	var inserted bool
	saved, err := scan(r.db.QueryRowContext(ctx, query, id, a.Date, a.UserID, a.Text, now), &inserted)
	if err != nil {
		return nil, false, dbError(err)
	}
	return saved, inserted, nil
}

func (r *PostgresRepository) UpdateText(ctx context.Context, id, text string, at time.Time) (*models.Accomplishment, error) {
	query :=
		`UPDATE accomplishments SET text = $2, last_update = $3
		 WHERE id = $1
		 RETURNING ` + columns

	a, err := scan(r.db.QueryRowContext(ctx, query, id, text, at))
	if err != nil {
		return nil, dbError(err)
	}
	return a, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accomplishments WHERE user_id = $1`, userID)
	if err != nil {
		return 0, dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}
