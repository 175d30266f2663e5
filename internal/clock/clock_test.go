package clock

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		secs    int
		wantErr bool
	}{
		{"+03:00", 3 * 3600, false},
		{"+3", 3 * 3600, false},
		{"-0530", -(5*3600 + 30*60), false},
		{"UTC", 0, false},
		{"", 0, false},
		{"03:00", 0, true},
		{"+25:00", 0, true},
		{"+03:75", 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			loc, err := ParseOffset(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOffset(%q) err = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOffset(%q) err = %v", tt.in, err)
			}
			_, off := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
			if off != tt.secs {
				t.Fatalf("ParseOffset(%q) offset = %d, want %d", tt.in, off, tt.secs)
			}
		})
	}
}

func TestFakeAndToday(t *testing.T) {
	t.Parallel()

	loc, _ := ParseOffset("+03:00")
	f := NewFake(time.Date(2025, 7, 10, 23, 30, 0, 0, loc))
	if got := Today(f); !got.Equal(time.Date(2025, 7, 10, 0, 0, 0, 0, loc)) {
		t.Fatalf("Today = %v", got)
	}
	f.Advance(time.Hour)
	if got := Today(f); got.Day() != 11 {
		t.Fatalf("Today after advance = %v, want day 11", got)
	}
}

func TestLoadZonePrefersName(t *testing.T) {
	t.Parallel()

	loc, err := LoadZone("UTC", "+03:00")
	if err != nil {
		t.Fatalf("LoadZone err = %v", err)
	}
	if loc.String() != "UTC" {
		t.Fatalf("LoadZone = %s, want UTC", loc)
	}
	if _, err := LoadZone("Nowhere/Atlantis", ""); err == nil {
		t.Fatalf("LoadZone unknown name err = nil")
	}
}
