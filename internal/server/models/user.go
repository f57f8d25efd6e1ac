// Package models defines server-side data models persisted in the database.
package models

import "time"

// Defaults applied to new users.
const (
	DefaultAlertTime       = "21:00"
	DefaultBackgroundColor = "#5900b3"
)

// User is a participant who logs daily accomplishments and may receive
// SMS reminders. Email is unique across users.
type User struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Alert           bool       `json:"alert"`
	AlertTime       string     `json:"alertTime"`
	BackgroundColor string     `json:"backgroundColor"`
	LastLoginDate   *time.Time `json:"lastLoginDate,omitempty"`
}

// ApplyDefaults fills optional fields left empty by the caller.
func (u *User) ApplyDefaults() {
	if u.AlertTime == "" {
		u.AlertTime = DefaultAlertTime
	}
	if u.BackgroundColor == "" {
		u.BackgroundColor = DefaultBackgroundColor
	}
}

// UserFilter narrows a user listing. Nil fields are not applied.
type UserFilter struct {
	Alert     *bool
	AlertTime *string
}

// Matches reports whether u passes the filter.
func (f UserFilter) Matches(u *User) bool {
	if f.Alert != nil && u.Alert != *f.Alert {
		return false
	}
	if f.AlertTime != nil && u.AlertTime != *f.AlertTime {
		return false
	}
	return true
}
