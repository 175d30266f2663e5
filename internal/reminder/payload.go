package reminder

// EventPayload is carried by event reminder jobs. Only ids and dates travel;
// the event itself is re-read when the job fires.
type EventPayload struct {
	EventID  int64
	FireDate Day
	// Recipient narrows delivery to one member (retries). Zero means everyone.
	Recipient int64
	Attempt   int
}

func (p EventPayload) Key() JobKey {
	if p.Recipient != 0 {
		return EventRetryKey(p.EventID, p.FireDate, p.Recipient)
	}
	return EventKey(p.EventID, p.FireDate)
}

// BirthdayPayload is carried by birthday reminder jobs.
type BirthdayPayload struct {
	MemberID  int64
	Year      int
	Recipient int64
	Attempt   int
}

func (p BirthdayPayload) Key() JobKey {
	if p.Recipient != 0 {
		return BirthdayRetryKey(p.MemberID, p.Year, p.Recipient)
	}
	return BirthdayKey(p.MemberID, p.Year)
}

// TestPayload carries a one-off message to a single chat.
type TestPayload struct {
	Handle int64
	Text   string
}

func (p TestPayload) Key() JobKey { return TestKey(p.Handle) }
