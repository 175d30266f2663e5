package domain

import (
	"strings"
	"time"
)

const (
	// UserDateLayout is what members type into the chat.
	UserDateLayout = "02.01.2006"
	// StoreDateLayout is how calendar dates are persisted.
	StoreDateLayout = "2006-01-02"
)

// DateOf truncates t to midnight of its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDate compares calendar dates of a and b in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}

// ParseUserDate parses "DD.MM.YYYY" in loc.
func ParseUserDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(UserDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrBadDateFormat
	}
	return t, nil
}

func FormatDate(t time.Time) string { return t.Format(UserDateLayout) }
