package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "first_name", "last_name", "email", "phone", "alert", "alert_time", "background_color", "last_login_date"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestList_NoFilter(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	login := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("u1", "Ann", "A", "ann@example.com", "+100", true, "09:00", "#fff", login).
		AddRow("u2", "Bob", "B", "bob@example.com", "", false, "21:00", "#5900b3", nil)

	mock.ExpectQuery(`(?s)^SELECT .* FROM users ORDER BY first_name, id$`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got[0].FirstName)
	require.NotNil(t, got[0].LastLoginDate)
	assert.True(t, login.Equal(*got[0].LastLoginDate))
	assert.Nil(t, got[1].LastLoginDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AlertFilter(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	on, at := true, "09:00"
	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE alert = \$1 AND alert_time = \$2 ORDER BY first_name, id$`).
		WithArgs(true, "09:00").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background(), models.UserFilter{Alert: &on, AlertTime: &at})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStore))
	assert.Regexp(t, regexp.MustCompile(`store error: .*db down`), err.Error())
}

func TestGetByID_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE id = \$1$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u1", "Ann", "A", "ann@example.com", "", false, "21:00", "#5900b3", nil))

	got, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE id = \$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE email = \$1$`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u2", "Bob", "B", "bob@example.com", "", false, "21:00", "#5900b3", nil))

	got, err := repo.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT INTO users \(.*\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9\)$`).
		WithArgs(sqlmock.AnyArg(), "Ann", "A", "ann@example.com", "", false, "21:00", "#5900b3", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{FirstName: "Ann", LastName: "A", Email: "ann@example.com", AlertTime: "21:00", BackgroundColor: "#5900b3"}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u1", Email: "dup@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE users SET .* WHERE id = \$1$`).
		WithArgs("u1", "Ann", "A", "ann@example.com", "+1", true, "08:00", "#000", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{ID: "u1", FirstName: "Ann", LastName: "A", Email: "ann@example.com", Phone: "+1", Alert: true, AlertTime: "08:00", BackgroundColor: "#000"}
	_, err := repo.Update(context.Background(), u)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), &models.User{ID: "ghost"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1"), common.ErrNotFound)
}
