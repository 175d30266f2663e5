package reminder

import (
	"fmt"
)

// Kind tags which entity a job belongs to and whether it is a retry.
type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindEventRetry
	KindBirthday
	KindBirthdayRetry
	// KindTest is a one-off self-check message requested by a member.
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindEventRetry:
		return "event-retry"
	case KindBirthday:
		return "birthday"
	case KindBirthdayRetry:
		return "birthday-retry"
	case KindTest:
		return "test"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// JobKey identifies one logical reminder. It is a plain comparable value and
// is never parsed back from its string form.
//
//   - event:          (event id, fire date)
//   - event retry:    (event id, fire date, recipient member id)
//   - birthday:       (member id, birthday year)
//   - birthday retry: (member id, birthday year, recipient member id)
type JobKey struct {
	Kind      Kind
	EntityID  int64
	Day       Day
	Recipient int64
}

func EventKey(eventID int64, fire Day) JobKey {
	return JobKey{Kind: KindEvent, EntityID: eventID, Day: fire}
}

func EventRetryKey(eventID int64, fire Day, recipient int64) JobKey {
	return JobKey{Kind: KindEventRetry, EntityID: eventID, Day: fire, Recipient: recipient}
}

func BirthdayKey(memberID int64, year int) JobKey {
	return JobKey{Kind: KindBirthday, EntityID: memberID, Day: Day{Year: year}}
}

func BirthdayRetryKey(memberID int64, year int, recipient int64) JobKey {
	return JobKey{Kind: KindBirthdayRetry, EntityID: memberID, Day: Day{Year: year}, Recipient: recipient}
}

// TestKey is keyed by the requester's chat handle.
func TestKey(handle int64) JobKey {
	return JobKey{Kind: KindTest, EntityID: handle}
}

func (k JobKey) IsEvent() bool    { return k.Kind == KindEvent || k.Kind == KindEventRetry }
func (k JobKey) IsBirthday() bool { return k.Kind == KindBirthday || k.Kind == KindBirthdayRetry }

// String is for logs and the inspection API.
func (k JobKey) String() string {
	if k.Kind == KindTest {
		return fmt.Sprintf("%s:%d", k.Kind, k.EntityID)
	}
	s := fmt.Sprintf("%s:%d:%s", k.Kind, k.EntityID, k.Day)
	if k.Kind == KindEventRetry || k.Kind == KindBirthdayRetry {
		s += fmt.Sprintf(":%d", k.Recipient)
	}
	return s
}
