package domain

import (
	"strings"
	"time"
)

type Event struct {
	ID          int64
	Title       string
	Description string
	Date        time.Time
	CreatorID   int64
	CreatorName string
	Recipients  []Member
	Reminder    Reminder
	CreatedAt   time.Time
}

// Reminder is the repeat cadence of one event.
type Reminder struct {
	EventID      int64
	IntervalDays int
}

// EventInput is what the creation flow collects before persisting.
type EventInput struct {
	Title        string
	Description  string
	Date         time.Time
	CreatorID    int64
	IntervalDays int
	RecipientIDs []int64
}

// IntervalOption is a cadence choice shown to event creators.
type IntervalOption struct {
	Label string
	Days  int
}

var IntervalOptions = []IntervalOption{
	{Label: "Каждые 7 дней", Days: 7},
	{Label: "Каждые 3 дня", Days: 3},
	{Label: "Каждый день", Days: 1},
}

func IntervalByLabel(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for _, o := range IntervalOptions {
		if o.Label == label {
			return o.Days, true
		}
	}
	return 0, false
}

// HasRecipient reports whether member id is on the recipient list.
func (e Event) HasRecipient(id int64) (Member, bool) {
	for _, m := range e.Recipients {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func ValidateInterval(days int) error {
	if days <= 0 {
		return Invalid("interval_days", ErrInvalidInterval)
	}
	return nil
}

// ValidateEventDate enforces target date >= today.
func ValidateEventDate(d, today time.Time) error {
	if d.IsZero() {
		return Invalid("date", ErrEmpty)
	}
	loc := today.Location()
	if DateOf(d, loc).Before(DateOf(today, loc)) {
		return Invalid("date", ErrEventInPast)
	}
	return nil
}

func ValidateEventInput(in EventInput, today time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return Invalid("title", ErrEmpty)
	}
	if in.CreatorID == 0 {
		return Invalid("creator", ErrEmpty)
	}
	if err := ValidateInterval(in.IntervalDays); err != nil {
		return err
	}
	return ValidateEventDate(in.Date, today)
}
