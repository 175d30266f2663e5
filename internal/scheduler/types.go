package scheduler

import (
	"context"
	"time"

	"orgbot/internal/domain"
	"orgbot/internal/reminder"
	"orgbot/internal/task/engine"
)

type Config struct {
	// Location is the organization zone. Defaults to UTC+3.
	Location *time.Location
	// ReminderTime is the wall-clock time every reminder fires at.
	ReminderTime     reminder.TimeOfDay
	BirthdayLeadDays int

	RetryDelay time.Duration
	// EventRetries and BirthdayRetries are extra attempts per recipient
	// after a failed send. Zero disables retries.
	EventRetries    int
	BirthdayRetries int

	// ResyncCron is a standard 5-field cron spec evaluated in Location.
	ResyncCron  string
	TaskTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.FixedZone("UTC+3", 3*3600)
	}
	if c.BirthdayLeadDays <= 0 {
		c.BirthdayLeadDays = reminder.DefaultLeadDays
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Minute
	}
	if c.ResyncCron == "" {
		c.ResyncCron = "5 0 * * *"
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 2 * time.Minute
	}
	return c
}

// Store is the read side of storage the scheduler needs.
type Store interface {
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	GetMember(ctx context.Context, id int64) (domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]domain.Event, error)
}

// Executor runs fire handlers off the timer goroutine. *engine.Service
// satisfies it.
type Executor interface {
	Enqueue(t engine.Task) error
}

// ResyncReport counts what a Resync installed.
type ResyncReport struct {
	Birthdays int `json:"birthdays"`
	Events    int `json:"events"`
	EventJobs int `json:"event_jobs"`
	Failed    int `json:"failed"`
}

// Outcome is the payload of reminder.* bus events.
type Outcome struct {
	FireID    string    `json:"fire_id"`
	Key       string    `json:"key"`
	Recipient int64     `json:"recipient,omitempty"`
	Attempt   int       `json:"attempt"`
	At        time.Time `json:"at"`
	Error     string    `json:"error,omitempty"`
}
