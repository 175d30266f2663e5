// Package clock provides the organization's notion of "now".
//
// All reminder math happens in one fixed zone. Components take a Clock so tests
// can pin the current instant.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{ loc *time.Location }

// System returns a wall clock that reports time in loc.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// Today returns midnight of the current date in the clock's zone.
func Today(c Clock) time.Time {
	now := c.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(now time.Time) *Fake { return &Fake{now: now} }

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	return f.now
}

// ParseOffset parses a fixed UTC offset such as "+03:00", "-0530" or "+3"
// and returns a zone named like "UTC+03:00".
func ParseOffset(s string) (*time.Location, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || strings.EqualFold(raw, "Z") || strings.EqualFold(raw, "UTC") {
		return time.UTC, nil
	}
	sign := 1
	switch raw[0] {
	case '+':
		raw = raw[1:]
	case '-':
		sign = -1
		raw = raw[1:]
	default:
		return nil, fmt.Errorf("invalid utc offset %q: missing sign", s)
	}

	var hh, mm string
	switch {
	case strings.Contains(raw, ":"):
		parts := strings.SplitN(raw, ":", 2)
		hh, mm = parts[0], parts[1]
	case len(raw) == 4:
		hh, mm = raw[:2], raw[2:]
	default:
		hh, mm = raw, "0"
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return nil, fmt.Errorf("invalid utc offset %q: bad hours", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return nil, fmt.Errorf("invalid utc offset %q: bad minutes", s)
	}
	secs := sign * (h*3600 + m*60)
	if secs == 0 {
		return time.UTC, nil
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", "+-"[(1-sign)/2], h, m)
	return time.FixedZone(name, secs), nil
}

// LoadZone resolves the organization zone. An IANA name wins over the offset.
func LoadZone(tz, offset string) (*time.Location, error) {
	if tz = strings.TrimSpace(tz); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", tz, err)
		}
		return loc, nil
	}
	return ParseOffset(offset)
}
