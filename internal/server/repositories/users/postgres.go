// Package users provides the PostgreSQL-backed user repository.
package users

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

const emailConstraint = "users_email_key"

const userColumns = `id, first_name, last_name, email, phone, alert, alert_time, background_color, last_login_date`

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

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.Alert, &u.AlertTime, &u.BackgroundColor, &lastLogin)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginDate = &t
	}
	return u, nil
}

func dbError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if dbx.IsUniqueViolation(err, emailConstraint) {
		return fmt.Errorf("%w: email already registered", common.ErrConflict)
	}
	return fmt.Errorf("%w: %w", common.ErrStore, err)
}

func (r *PostgresRepository) List(ctx context.Context, f models.UserFilter) ([]*models.User, error) {
	var (
		where []string
		args  []any
	)
	if f.Alert != nil {
		args = append(args, *f.Alert)
		where = append(where, fmt.Sprintf("alert = $%d", len(args)))
	}
	if f.AlertTime != nil {
		args = append(args, *f.AlertTime)
		where = append(where, fmt.Sprintf("alert_time = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY first_name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, dbError(err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Alert, u.AlertTime, u.BackgroundColor, nullTime(u.LastLoginDate))
	if err != nil {
		return nil, dbError(err)
	}
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, phone = $5,
		        alert = $6, alert_time = $7, background_color = $8, last_login_date = $9
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Alert, u.AlertTime, u.BackgroundColor, nullTime(u.LastLoginDate))
	if err != nil {
		return nil, dbError(err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
