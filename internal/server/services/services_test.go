package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/config"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	email string
	err   error
}

func (f fakeVerifier) VerifyEmail(context.Context, string) (string, error) {
	return f.email, f.err
}

func newManager() *repomanager.MemoryRepositoryManager {
	return repomanager.NewMemoryRepositoryManager(memory.NewStore())
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour}
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(common.DayLayout, s)
	require.NoError(t, err)
	return d
}

func seedUser(t *testing.T, m repomanager.RepositoryManager, id, first string) *models.User {
	t.Helper()
	u, err := m.Users().Create(context.Background(), &models.User{
		ID: id, FirstName: first, LastName: "L", Email: id + "@example.com",
		AlertTime: models.DefaultAlertTime, BackgroundColor: models.DefaultBackgroundColor,
	})
	require.NoError(t, err)
	return u
}

func seedEntry(t *testing.T, m repomanager.RepositoryManager, userID, day, text string) *models.Accomplishment {
	t.Helper()
	a, _, err := m.Accomplishments().SaveOrUpdateByUserDate(context.Background(),
		&models.Accomplishment{UserID: userID, Date: mustDay(t, day), Text: text})
	require.NoError(t, err)
	return a
}
