package domain

import (
	"strings"
	"time"
)

// Member is a registered participant. Handle is the Telegram user id, which
// is also the private chat id the bot writes to.
type Member struct {
	ID        int64
	Handle    int64
	FullName  string
	Position  string
	BirthDate time.Time
	IsAdmin   bool
	CreatedAt time.Time
}

// Positions offered by the registration flow.
var Positions = []string{
	"заведующий кафедрой",
	"доцент",
	"старший преподаватель",
	"ассистент",
	"профессор",
	"заведующий лабораторией",
	"сотрудник лаборатории",
}

func ValidPosition(p string) bool {
	p = strings.TrimSpace(p)
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}

// ValidateBirthDate rejects dates that cannot be a living member's birthday.
func ValidateBirthDate(d, today time.Time) error {
	if d.IsZero() || d.Year() < 1900 {
		return Invalid("birth_date", ErrInvalidBirthDate)
	}
	if DateOf(d, today.Location()).After(DateOf(today, today.Location())) {
		return Invalid("birth_date", ErrInvalidBirthDate)
	}
	return nil
}

// ValidateMember checks a member before it is persisted.
func ValidateMember(m Member, today time.Time) error {
	if m.Handle == 0 {
		return Invalid("handle", ErrEmpty)
	}
	if strings.TrimSpace(m.FullName) == "" {
		return Invalid("full_name", ErrEmpty)
	}
	if strings.TrimSpace(m.Position) == "" {
		return Invalid("position", ErrEmpty)
	}
	return ValidateBirthDate(m.BirthDate, today)
}
