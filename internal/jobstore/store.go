// Package jobstore keeps the live one-shot timers of the reminder scheduler,
// at most one per reminder.JobKey.
package jobstore

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"orgbot/internal/reminder"
)

var (
	ErrStopped = errors.New("jobstore: stopped")
	ErrNoTime  = errors.New("jobstore: fire time required")
)

// Job is one pending firing. Version increases with every installation, so a
// replaced job never shares a version with its successor.
type Job struct {
	Key     reminder.JobKey
	At      time.Time
	Payload any
	Version uint64
}

// Timer is the part of *time.Timer the store needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Timer

// DispatchFunc receives a job after its timer elapsed and it left the table.
// It runs on the timer goroutine and must not block.
type DispatchFunc func(Job)

type Option func(*Store)

func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.after = fn
		}
	}
}

func WithNow(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

type entry struct {
	job   Job
	timer Timer
}

type Store struct {
	mu       sync.Mutex
	entries  map[reminder.JobKey]*entry
	ver      uint64
	stopped  bool
	dispatch DispatchFunc
	after    AfterFunc
	now      func() time.Time
}

func New(dispatch DispatchFunc, opts ...Option) *Store {
	s := &Store{
		entries:  map[reminder.JobKey]*entry{},
		dispatch: dispatch,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert installs a timer for key firing at at, replacing any live one.
// An instant already in the past fires immediately.
func (s *Store) Upsert(key reminder.JobKey, at time.Time, payload any) (Job, error) {
	if at.IsZero() {
		return Job{}, ErrNoTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Job{}, ErrStopped
	}

	if e, ok := s.entries[key]; ok {
		_ = e.timer.Stop()
		delete(s.entries, key)
	}

	s.ver++
	job := Job{Key: key, At: at, Payload: payload, Version: s.ver}

	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	ver := job.Version
	e := &entry{job: job}
	// The callback cannot run before we release s.mu, so the entry is in place.
	e.timer = s.after(delay, func() { s.fire(key, ver) })
	s.entries[key] = e
	return job, nil
}

func (s *Store) fire(key reminder.JobKey, ver uint64) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.job.Version != ver || s.stopped {
		// replaced, cancelled or stopped
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	job := e.job
	dispatch := s.dispatch
	s.mu.Unlock()

	if dispatch != nil {
		dispatch(job)
	}
}

// Cancel stops the timer under key. It returns false if nothing was pending.
func (s *Store) Cancel(key reminder.JobKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	_ = e.timer.Stop()
	delete(s.entries, key)
	return true
}

// CancelWhere stops every pending job whose key matches and returns how many.
func (s *Store) CancelWhere(match func(reminder.JobKey) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !match(k) {
			continue
		}
		_ = e.timer.Stop()
		delete(s.entries, k)
		n++
	}
	return n
}

// CancelEvent drops all reminders and retries of one event.
func (s *Store) CancelEvent(eventID int64) int {
	return s.CancelWhere(func(k reminder.JobKey) bool {
		return k.IsEvent() && k.EntityID == eventID
	})
}

// CancelBirthday drops all birthday jobs of one member.
func (s *Store) CancelBirthday(memberID int64) int {
	return s.CancelWhere(func(k reminder.JobKey) bool {
		return k.IsBirthday() && k.EntityID == memberID
	})
}

func (s *Store) Get(key reminder.JobKey) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// List returns a snapshot ordered by fire time, then key.
func (s *Store) List() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.job)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Job) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return cmp.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stopped reports whether Stop has run.
func (s *Store) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop cancels every pending timer. Later Upserts fail with ErrStopped.
func (s *Store) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	for _, e := range s.entries {
		_ = e.timer.Stop()
	}
	s.entries = map[reminder.JobKey]*entry{}
	s.stopped = true
	return n
}
