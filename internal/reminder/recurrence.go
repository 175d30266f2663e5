package reminder

import (
	"iter"
	"time"

	"orgbot/internal/domain"
)

// Generate yields one fire instant per stepped calendar day from start to
// target inclusive, each at the given time of day in loc.
//
// Stepping uses calendar arithmetic, so a zone with DST still lands on the same
// wall clock every time. The sequence is lazy and can be ranged more than once.
// It never looks at the clock; dropping instants in the past is up to the caller.
func Generate(start, target time.Time, intervalDays int, at TimeOfDay, loc *time.Location) (iter.Seq[time.Time], error) {
	if err := domain.ValidateInterval(intervalDays); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = start.Location()
	}
	first := domain.DateOf(start, loc)
	last := domain.DateOf(target, loc)

	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.AddDate(0, 0, intervalDays) {
			if !yield(at.On(d, loc)) {
				return
			}
		}
	}, nil
}

// Count returns how many instants Generate yields for the same arguments.
func Count(start, target time.Time, intervalDays int, loc *time.Location) int {
	if intervalDays <= 0 {
		return 0
	}
	if loc == nil {
		loc = start.Location()
	}
	days := daysBetween(domain.DateOf(start, loc), domain.DateOf(target, loc))
	if days < 0 {
		return 0
	}
	return days/intervalDays + 1
}

func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
