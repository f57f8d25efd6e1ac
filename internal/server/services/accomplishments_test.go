package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccomplishmentService_SaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	seedUser(t, m, "u1", "Ann")
	svc := NewAccomplishmentService(m)

	t1 := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t1 }
	first, created, err := svc.Save(ctx, SaveRequest{UserID: "u1", Date: "2024-03-05", Text: "a"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-03-05", first.Day())

	t2 := t1.Add(2 * time.Hour)
	svc.now = func() time.Time { return t2 }
	second, created, err := svc.Save(ctx, SaveRequest{UserID: "u1", Date: "2024-03-05", Text: "done"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "done", second.Text)
	assert.Equal(t, t2, second.LastUpdate)

	byID, created, err := svc.Save(ctx, SaveRequest{ID: first.ID, Text: "done and dusted"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "done and dusted", byID.Text)
}

func TestAccomplishmentService_SaveEmptyTextAllowed(t *testing.T) {
	m := newManager()
	seedUser(t, m, "u1", "Ann")

	a, created, err := NewAccomplishmentService(m).Save(context.Background(), SaveRequest{UserID: "u1", Date: "2024-03-05"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, a.Text)
}

func TestAccomplishmentService_SaveErrors(t *testing.T) {
	m := newManager()
	seedUser(t, m, "u1", "Ann")
	svc := NewAccomplishmentService(m)

	tests := []struct {
		name string
		req  SaveRequest
		want error
	}{
		{"unknown id", SaveRequest{ID: "missing", Text: "x"}, common.ErrNotFound},
		{"no user", SaveRequest{Date: "2024-03-05"}, common.ErrValidation},
		{"no date", SaveRequest{UserID: "u1"}, common.ErrValidation},
		{"bad date", SaveRequest{UserID: "u1", Date: "05/03/2024"}, common.ErrValidation},
		{"unknown user", SaveRequest{UserID: "ghost", Date: "2024-03-05"}, common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Save(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccomplishmentService_PersonalMergesRange(t *testing.T) {
	m := newManager()
	seedUser(t, m, "u1", "Ann")
	seedUser(t, m, "u2", "Bob")
	seedEntry(t, m, "u1", "2024-01-03", "wrote docs")
	seedEntry(t, m, "u1", "2024-01-10", "outside range")
	seedEntry(t, m, "u2", "2024-01-02", "other user")

	got, err := NewAccomplishmentService(m).Personal(context.Background(), "u1", "2024-01-01", "2024-01-07")
	require.NoError(t, err)

	require.Len(t, got, 7)
	var dates []string
	for _, e := range got {
		dates = append(dates, e.Date)
	}
	assert.Equal(t, []string{
		"2024-01-07", "2024-01-06", "2024-01-05", "2024-01-04", "2024-01-03", "2024-01-02", "2024-01-01",
	}, dates)

	assert.Equal(t, "wrote docs", got[4].Text)
	assert.NotEmpty(t, got[4].ID)
	assert.Empty(t, got[5].ID)
	assert.Empty(t, got[5].Text)
}

func TestAccomplishmentService_PersonalWithoutRange(t *testing.T) {
	m := newManager()
	seedUser(t, m, "u1", "Ann")
	seedEntry(t, m, "u1", "2024-01-03", "a")
	seedEntry(t, m, "u1", "2024-02-03", "b")

	got, err := NewAccomplishmentService(m).Personal(context.Background(), "u1", "", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-03", got[0].Date)
}

func TestAccomplishmentService_PersonalInvalidRange(t *testing.T) {
	svc := NewAccomplishmentService(newManager())

	_, err := svc.Personal(context.Background(), "u1", "2024-01-07", "2024-01-01")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Personal(context.Background(), "u1", "soon", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}
