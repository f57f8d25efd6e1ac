package common

import "unicode/utf8"

const (
	// AccessTokenHeaderName is the legacy HTTP header carrying the session token.
	// The Authorization: Bearer form is preferred.
	AccessTokenHeaderName = "x-access-token"

	// DayLayout is the textual form of a calendar day used on the wire and in
	// every day comparison.
	DayLayout = "2006-01-02"

	// ClockLayout is the HH:mm form of a user's alert time.
	ClockLayout = "15:04"

	// MinCompletedTextLen is the shortest entry text, in characters, that counts as a completed day.
	MinCompletedTextLen = 3
)

// IsCompleted reports whether an entry text counts as a completed day.
// Length is measured in characters, not bytes.
func IsCompleted(text string) bool {
	return utf8.RuneCountInString(text) >= MinCompletedTextLen
}
