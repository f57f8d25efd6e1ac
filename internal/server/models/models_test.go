package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_ApplyDefaults(t *testing.T) {
	u := &User{FirstName: "Ann"}
	u.ApplyDefaults()
	assert.Equal(t, DefaultAlertTime, u.AlertTime)
	assert.Equal(t, DefaultBackgroundColor, u.BackgroundColor)

	u = &User{AlertTime: "08:30", BackgroundColor: "#000"}
	u.ApplyDefaults()
	assert.Equal(t, "08:30", u.AlertTime)
	assert.Equal(t, "#000", u.BackgroundColor)
}

func TestUserFilter_Matches(t *testing.T) {
	on, at := true, "09:00"
	u := &User{Alert: true, AlertTime: "09:00"}

	assert.True(t, UserFilter{}.Matches(u))
	assert.True(t, UserFilter{Alert: &on, AlertTime: &at}.Matches(u))

	other := "10:00"
	assert.False(t, UserFilter{AlertTime: &other}.Matches(u))

	off := false
	assert.False(t, UserFilter{Alert: &off}.Matches(u))
}

func TestAccomplishmentFilter_Matches(t *testing.T) {
	day := func(s string) time.Time {
		d, _ := time.Parse("2006-01-02", s)
		return d
	}
	a := &Accomplishment{UserID: "u1", Date: day("2024-01-03")}

	assert.True(t, AccomplishmentFilter{}.Matches(a))
	assert.True(t, AccomplishmentFilter{UserID: "u1", From: day("2024-01-03"), To: day("2024-01-03")}.Matches(a))
	assert.False(t, AccomplishmentFilter{UserID: "u2"}.Matches(a))
	assert.False(t, AccomplishmentFilter{From: day("2024-01-04")}.Matches(a))
	assert.False(t, AccomplishmentFilter{To: day("2024-01-02")}.Matches(a))
	assert.Equal(t, "2024-01-03", a.Day())
}
