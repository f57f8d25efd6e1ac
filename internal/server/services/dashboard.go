package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/calendar"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/repomanager"
)

// HeaderRowID marks the first dashboard row, which carries the day range.
const HeaderRowID = "headers"

// DashboardRow is either the header row or one user's completion row. Data is
// aligned positionally with the header row.
type DashboardRow struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Data      []calendar.Day `json:"data"`
}

type slotKey struct {
	userID string
	day    string
}

// BuildDashboard lays out one row per user (in the given order) over days.
// A slot is complete when the user has an entry for that day whose text
// counts as completed. Each row gets its own copy of days.
func BuildDashboard(days []calendar.Day, users []*models.User, accomplishments []*models.Accomplishment) []DashboardRow {
	done := make(map[slotKey]struct{}, len(accomplishments))
	for _, a := range accomplishments {
		if common.IsCompleted(a.Text) {
			done[slotKey{a.UserID, a.Day()}] = struct{}{}
		}
	}

	rows := make([]DashboardRow, 0, len(users)+1)
	rows = append(rows, DashboardRow{ID: HeaderRowID, Data: cloneDays(days)})

	for _, u := range users {
		data := cloneDays(days)
		for i := range data {
			_, data[i].Complete = done[slotKey{u.ID, data[i].Date}]
		}
		rows = append(rows, DashboardRow{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Data: data})
	}
	return rows
}

func cloneDays(days []calendar.Day) []calendar.Day {
	out := make([]calendar.Day, len(days))
	copy(out, days)
	return out
}

type DashboardService struct {
	repomanager repomanager.RepositoryManager
}

func NewDashboardService(m repomanager.RepositoryManager) *DashboardService {
	return &DashboardService{repomanager: m}
}

// Dashboard builds the weekday completion grid for [start, end].
func (s *DashboardService) Dashboard(ctx context.Context, start, end string) ([]DashboardRow, error) {
	from, err := calendar.ParseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := calendar.ParseDay(end)
	if err != nil {
		return nil, err
	}
	days, err := calendar.RangeTimes(from, to, calendar.ModeDashboard)
	if err != nil {
		return nil, err
	}

	users, err := s.repomanager.Users().List(ctx, models.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	accomplishments, err := s.repomanager.Accomplishments().List(ctx, models.AccomplishmentFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list accomplishments: %w", err)
	}

	return BuildDashboard(days, users, accomplishments), nil
}
