package reminder

import (
	"time"

	"orgbot/internal/domain"
)

// DefaultLeadDays is how far ahead of a birthday the reminder fires.
const DefaultLeadDays = 7

// ObservedBirthday returns the birthday as celebrated in year. A Feb 29
// birthday is observed on Feb 28 in non-leap years.
func ObservedBirthday(year int, month time.Month, day int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// NextOccurrence returns this year's birthday, or next year's if this year's
// is already strictly before today. The result is midnight in today's zone.
func NextOccurrence(month time.Month, day int, today time.Time) time.Time {
	loc := today.Location()
	t := domain.DateOf(today, loc)
	this := ObservedBirthday(t.Year(), month, day, loc)
	if this.Before(t) {
		return ObservedBirthday(t.Year()+1, month, day, loc)
	}
	return this
}

// ReminderInstant is next minus leadDays, at the given time of day.
func ReminderInstant(next time.Time, leadDays int, at TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = next.Location()
	}
	return at.On(domain.DateOf(next, loc).AddDate(0, 0, -leadDays), loc)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
