package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/calendar"
	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/repomanager"
)

// PersonalEntry is one line of the personal view: either a stored
// accomplishment or an empty placeholder for a day without one.
type PersonalEntry struct {
	ID         string     `json:"id,omitempty"`
	Date       string     `json:"date"`
	UserID     string     `json:"user,omitempty"`
	Text       string     `json:"text"`
	Created    *time.Time `json:"created,omitempty"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

func entryFromModel(a *models.Accomplishment) PersonalEntry {
	created, updated := a.Created, a.LastUpdate
	return PersonalEntry{
		ID:         a.ID,
		Date:       a.Day(),
		UserID:     a.UserID,
		Text:       a.Text,
		Created:    &created,
		LastUpdate: &updated,
	}
}

// SaveRequest is the body of a save. An empty ID saves by (user, date).
type SaveRequest struct {
	ID     string `json:"id"`
	UserID string `json:"user"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

type AccomplishmentService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewAccomplishmentService(m repomanager.RepositoryManager) *AccomplishmentService {
	return &AccomplishmentService{
		repomanager: m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Personal lists stored entries, optionally narrowed to one user and to
// [start, end]. When both bounds are given, every day in the range without
// a stored entry gets an empty placeholder. Newest days come first.
func (s *AccomplishmentService) Personal(ctx context.Context, userID, start, end string) ([]PersonalEntry, error) {
	f := models.AccomplishmentFilter{UserID: userID}

	var err error
	if start != "" {
		if f.From, err = calendar.ParseDay(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if f.To, err = calendar.ParseDay(end); err != nil {
			return nil, err
		}
	}

	var days []calendar.Day
	if start != "" && end != "" {
		if days, err = calendar.RangeTimes(f.From, f.To, calendar.ModePersonal); err != nil {
			return nil, err
		}
	}

	stored, err := s.repomanager.Accomplishments().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list accomplishments: %w", err)
	}

	entries := make([]PersonalEntry, 0, len(stored)+len(days))
	seen := make(map[string]struct{}, len(stored))
	for _, a := range stored {
		e := entryFromModel(a)
		seen[e.Date] = struct{}{}
		entries = append(entries, e)
	}
	for _, d := range days {
		if _, ok := seen[d.Date]; ok {
			continue
		}
		entries = append(entries, PersonalEntry{Date: d.Date, Text: d.Text})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

// Save updates the text of an existing entry when req.ID is set and
// otherwise creates or updates the entry for (req.UserID, req.Date).
// created reports whether a new entry was stored.
func (s *AccomplishmentService) Save(ctx context.Context, req SaveRequest) (a *models.Accomplishment, created bool, err error) {
	repo := s.repomanager.Accomplishments()
	now := s.now()

	if req.ID != "" {
		a, err = repo.UpdateText(ctx, req.ID, req.Text, now)
		if err != nil {
			return nil, false, fmt.Errorf("update accomplishment: %w", err)
		}
		return a, false, nil
	}

	if strings.TrimSpace(req.UserID) == "" {
		return nil, false, fmt.Errorf("%w: user is required", common.ErrValidation)
	}
	if req.Date == "" {
		return nil, false, fmt.Errorf("%w: date is required", common.ErrValidation)
	}
	day, err := calendar.ParseDay(req.Date)
	if err != nil {
		return nil, false, err
	}

	if _, err := s.repomanager.Users().GetByID(ctx, req.UserID); err != nil {
		return nil, false, fmt.Errorf("accomplishment owner: %w", err)
	}

	a, created, err = repo.SaveOrUpdateByUserDate(ctx, &models.Accomplishment{
		UserID:     req.UserID,
		Date:       day,
		Text:       req.Text,
		LastUpdate: now,
	})
	if err != nil {
		return nil, false, fmt.Errorf("save accomplishment: %w", err)
	}
	return a, created, nil
}
