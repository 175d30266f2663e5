package reminder

import (
	"errors"
	"slices"
	"testing"
	"time"

	"orgbot/internal/domain"
)

var msk = time.FixedZone("UTC+3", 3*3600)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, msk)
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "13:00", want: TimeOfDay{Hour: 13}},
		{in: " 09:05 ", want: TimeOfDay{Hour: 9, Minute: 5}},
		{in: "00:00", want: TimeOfDay{}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1300", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) err = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateScenario(t *testing.T) {
	t.Parallel()

	seq, err := Generate(date(2025, 7, 10), date(2025, 8, 1), 7, DefaultTimeOfDay, msk)
	if err != nil {
		t.Fatalf("Generate err = %v", err)
	}
	got := slices.Collect(seq)
	want := []time.Time{
		time.Date(2025, 7, 10, 13, 0, 0, 0, msk),
		time.Date(2025, 7, 17, 13, 0, 0, 0, msk),
		time.Date(2025, 7, 24, 13, 0, 0, 0, msk),
		time.Date(2025, 7, 31, 13, 0, 0, 0, msk),
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("instant[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	again := slices.Collect(seq)
	if len(again) != len(got) {
		t.Fatalf("second range len = %d, want %d", len(again), len(got))
	}
}

func TestGenerateLaw(t *testing.T) {
	t.Parallel()

	start := date(2024, 1, 1)
	for _, interval := range []int{1, 2, 3, 7, 30} {
		for _, span := range []int{0, 1, 6, 7, 29, 60, 366} {
			target := start.AddDate(0, 0, span)
			seq, err := Generate(start, target, interval, DefaultTimeOfDay, msk)
			if err != nil {
				t.Fatalf("Generate(%d, %d) err = %v", interval, span, err)
			}
			got := slices.Collect(seq)
			if want := span/interval + 1; len(got) != want {
				t.Fatalf("interval=%d span=%d: count = %d, want %d", interval, span, len(got), want)
			}
			if c := Count(start, target, interval, msk); c != len(got) {
				t.Fatalf("Count = %d, want %d", c, len(got))
			}
			for i, at := range got {
				if at.Before(DefaultTimeOfDay.On(start, msk)) || domain.DateOf(at, msk).After(target) {
					t.Fatalf("instant %v out of bounds", at)
				}
				if i > 0 && at.Sub(got[i-1]) != time.Duration(interval)*24*time.Hour {
					t.Fatalf("spacing %v, want %d days", at.Sub(got[i-1]), interval)
				}
			}
		}
	}
}

func TestGenerateEdges(t *testing.T) {
	t.Parallel()

	seq, err := Generate(date(2025, 8, 2), date(2025, 8, 1), 1, DefaultTimeOfDay, msk)
	if err != nil {
		t.Fatalf("Generate err = %v", err)
	}
	if got := slices.Collect(seq); len(got) != 0 {
		t.Fatalf("start after target: got %v, want empty", got)
	}
	if c := Count(date(2025, 8, 2), date(2025, 8, 1), 1, msk); c != 0 {
		t.Fatalf("Count = %d, want 0", c)
	}

	for _, interval := range []int{0, -1} {
		_, err := Generate(date(2025, 8, 1), date(2025, 8, 2), interval, DefaultTimeOfDay, msk)
		if !errors.Is(err, domain.ErrInvalidInterval) || !domain.IsValidation(err) {
			t.Fatalf("interval %d: err = %v, want validation error", interval, err)
		}
	}
}

func TestGenerateStopsEarly(t *testing.T) {
	t.Parallel()

	seq, err := Generate(date(2025, 1, 1), date(2025, 12, 31), 1, DefaultTimeOfDay, msk)
	if err != nil {
		t.Fatalf("Generate err = %v", err)
	}
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		month time.Month
		day   int
		today time.Time
		want  time.Time
	}{
		{name: "already passed", month: time.January, day: 10, today: date(2024, 1, 11), want: date(2025, 1, 10)},
		{name: "today", month: time.January, day: 10, today: date(2024, 1, 10), want: date(2024, 1, 10)},
		{name: "later this year", month: time.August, day: 1, today: date(2024, 1, 5), want: date(2024, 8, 1)},
		{name: "leap day in leap year", month: time.February, day: 29, today: date(2024, 1, 1), want: date(2024, 2, 29)},
		{name: "leap day observed feb 28", month: time.February, day: 29, today: date(2025, 1, 1), want: date(2025, 2, 28)},
		{name: "leap day rolls to next year", month: time.February, day: 29, today: date(2025, 3, 1), want: date(2026, 2, 28)},
		{name: "dec 31 from jan 1", month: time.December, day: 31, today: date(2024, 1, 1), want: date(2024, 12, 31)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NextOccurrence(tt.month, tt.day, tt.today)
			if !got.Equal(tt.want) {
				t.Fatalf("NextOccurrence = %v, want %v", got, tt.want)
			}
			if got.Before(tt.today) || got.After(tt.today.AddDate(1, 0, 0)) {
				t.Fatalf("NextOccurrence = %v outside [today, today+1y]", got)
			}
		})
	}
}

func TestBirthdayScenario(t *testing.T) {
	t.Parallel()

	today := date(2024, 1, 5)
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, msk)
	next := NextOccurrence(time.January, 10, today)
	at := ReminderInstant(next, DefaultLeadDays, DefaultTimeOfDay, msk)
	if want := time.Date(2024, 1, 3, 13, 0, 0, 0, msk); !at.Equal(want) {
		t.Fatalf("ReminderInstant = %v, want %v", at, want)
	}
	if at.After(now) {
		t.Fatalf("instant %v should already be in the past at %v", at, now)
	}
}

func TestJobKeyString(t *testing.T) {
	t.Parallel()

	fire := DayOf(date(2025, 7, 10))
	tests := []struct {
		key  JobKey
		want string
	}{
		{key: EventKey(12, fire), want: "event:12:2025-07-10"},
		{key: EventRetryKey(12, fire, 5), want: "event-retry:12:2025-07-10:5"},
		{key: BirthdayKey(3, 2024), want: "birthday:3:2024"},
		{key: BirthdayRetryKey(3, 2024, 9), want: "birthday-retry:3:2024:9"},
		{key: TestKey(777), want: "test:777"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}

	if !EventRetryKey(1, fire, 2).IsEvent() || EventKey(1, fire).IsBirthday() {
		t.Fatalf("event kind predicates wrong")
	}
	if !BirthdayRetryKey(1, 2024, 2).IsBirthday() {
		t.Fatalf("birthday kind predicate wrong")
	}
}

func TestPayloadKey(t *testing.T) {
	t.Parallel()

	fire := DayOf(date(2025, 7, 17))
	p := EventPayload{EventID: 4, FireDate: fire}
	if got := p.Key(); got != EventKey(4, fire) {
		t.Fatalf("Key() = %v, want event key", got)
	}
	p.Recipient = 7
	if got := p.Key(); got != EventRetryKey(4, fire, 7) {
		t.Fatalf("Key() = %v, want retry key", got)
	}
	b := BirthdayPayload{MemberID: 2, Year: 2025}
	if got := b.Key(); got != BirthdayKey(2, 2025) {
		t.Fatalf("Key() = %v, want birthday key", got)
	}
}

func TestDayRoundTrip(t *testing.T) {
	t.Parallel()

	d := DayOf(date(2025, 2, 28))
	if got := d.Time(msk); !got.Equal(date(2025, 2, 28)) {
		t.Fatalf("Time() = %v", got)
	}
	if d.IsZero() || !(Day{}).IsZero() {
		t.Fatalf("IsZero wrong")
	}
}
