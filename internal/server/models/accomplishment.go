package models

import (
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
)

// Accomplishment is one user's free-text entry for one calendar day.
// Date is always midnight UTC; (UserID, Date) is unique.
type Accomplishment struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	UserID     string    `json:"user"`
	Text       string    `json:"text"`
	Created    time.Time `json:"created"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// Day returns the YYYY-MM-DD form of the entry date.
func (a *Accomplishment) Day() string {
	return a.Date.UTC().Format(common.DayLayout)
}

// AccomplishmentFilter narrows an accomplishment listing. Bounds are inclusive
// calendar days; zero values are not applied.
type AccomplishmentFilter struct {
	UserID string
	From   time.Time
	To     time.Time
}

// Matches reports whether a passes the filter.
func (f AccomplishmentFilter) Matches(a *Accomplishment) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && a.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Date.After(f.To) {
		return false
	}
	return true
}
