package domain

import (
	"errors"
	"testing"
	"time"
)

var msk = time.FixedZone("UTC+03:00", 3*3600)

func TestValidateEventDate(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, 7, 10, 15, 0, 0, 0, msk)
	tests := []struct {
		name string
		date time.Time
		want error
	}{
		{"today", time.Date(2025, 7, 10, 0, 0, 0, 0, msk), nil},
		{"future", time.Date(2025, 8, 1, 0, 0, 0, 0, msk), nil},
		{"yesterday", time.Date(2025, 7, 9, 0, 0, 0, 0, msk), ErrEventInPast},
		{"zero", time.Time{}, ErrEmpty},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateEventDate(tt.date, today)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ValidateEventDate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) || !IsValidation(err) {
				t.Fatalf("ValidateEventDate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateBirthDate(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 5, 9, 0, 0, 0, msk)
	if err := ValidateBirthDate(time.Date(1990, 1, 10, 0, 0, 0, 0, msk), today); err != nil {
		t.Fatalf("valid birth date rejected: %v", err)
	}
	if err := ValidateBirthDate(time.Date(2030, 1, 1, 0, 0, 0, 0, msk), today); !errors.Is(err, ErrInvalidBirthDate) {
		t.Fatalf("future birth date err = %v", err)
	}
	if err := ValidateBirthDate(time.Time{}, today); !errors.Is(err, ErrInvalidBirthDate) {
		t.Fatalf("zero birth date err = %v", err)
	}
}

func TestValidateInterval(t *testing.T) {
	t.Parallel()

	for _, d := range []int{0, -1} {
		var ve *ValidationError
		if err := ValidateInterval(d); !errors.As(err, &ve) || ve.Field != "interval_days" {
			t.Fatalf("ValidateInterval(%d) = %v", d, err)
		}
	}
	if err := ValidateInterval(3); err != nil {
		t.Fatalf("ValidateInterval(3) = %v", err)
	}
}

func TestParseUserDate(t *testing.T) {
	t.Parallel()

	got, err := ParseUserDate(" 01.08.2004 ", msk)
	if err != nil {
		t.Fatalf("ParseUserDate err = %v", err)
	}
	if !got.Equal(time.Date(2004, 8, 1, 0, 0, 0, 0, msk)) {
		t.Fatalf("ParseUserDate = %v", got)
	}
	if _, err := ParseUserDate("2004-08-01", msk); !errors.Is(err, ErrBadDateFormat) {
		t.Fatalf("ParseUserDate wrong layout err = %v", err)
	}
	if FormatDate(got) != "01.08.2004" {
		t.Fatalf("FormatDate = %q", FormatDate(got))
	}
}

func TestIntervalByLabel(t *testing.T) {
	t.Parallel()

	if d, ok := IntervalByLabel("Каждые 3 дня"); !ok || d != 3 {
		t.Fatalf("IntervalByLabel = %d, %v", d, ok)
	}
	if _, ok := IntervalByLabel("Каждый час"); ok {
		t.Fatalf("unknown label accepted")
	}
	if !ValidPosition("доцент") || ValidPosition("ректор") {
		t.Fatalf("ValidPosition mismatch")
	}
}
