// Package calendar expands a date range into the day slots shown by the
// personal accomplishment view and the team dashboard.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
)

// Mode selects which days a range contains and how their slot is valued.
type Mode int

const (
	// ModePersonal yields every calendar day with an empty text slot.
	ModePersonal Mode = iota + 1
	// ModeDashboard yields Monday through Friday with a false completion slot.
	ModeDashboard
)

func (m Mode) String() string {
	switch m {
	case ModePersonal:
		return "personal"
	case ModeDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var (
	ErrInvalidRange = fmt.Errorf("%w: invalid date range", common.ErrValidation)
	ErrInvalidMode  = errors.New("calendar: unknown mode")
)

// Day is one slot in a range. Text is meaningful in personal mode, Complete in
// dashboard mode.
type Day struct {
	Date     string
	Mode     Mode
	Text     string
	Complete bool
}

// MarshalJSON encodes the slot as {"date": ..., "text": ...} where text is a
// string in personal mode and a boolean in dashboard mode.
func (d Day) MarshalJSON() ([]byte, error) {
	var value any = d.Text
	if d.Mode == ModeDashboard {
		value = d.Complete
	}
	return json.Marshal(struct {
		Date string `json:"date"`
		Text any    `json:"text"`
	}{d.Date, value})
}

// ParseDay parses YYYY-MM-DD (or an RFC 3339 timestamp, whose time of day and
// offset are dropped) into midnight UTC of that calendar day.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(common.DayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return Truncate(t), nil
}

// Truncate returns midnight UTC of the calendar day t falls on in its own
// location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Range parses both bounds and returns RangeTimes for them.
func Range(start, end string, mode Mode) ([]Day, error) {
	from, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDay(end)
	if err != nil {
		return nil, err
	}
	return RangeTimes(from, to, mode)
}

// RangeTimes returns the days from start to end inclusive, in ascending order.
// start == end yields a single day in personal mode, and a single day or
// nothing in dashboard mode depending on the weekday.
func RangeTimes(start, end time.Time, mode Mode) ([]Day, error) {
	if mode != ModePersonal && mode != ModeDashboard {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	from, to := Truncate(start), Truncate(end)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			to.Format(common.DayLayout), from.Format(common.DayLayout))
	}

	days := make([]Day, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if mode == ModeDashboard && IsWeekend(d) {
			continue
		}
		days = append(days, Day{Date: d.Format(common.DayLayout), Mode: mode})
	}
	return days, nil
}

// IsWeekend reports whether t falls on Saturday or Sunday in its location.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
