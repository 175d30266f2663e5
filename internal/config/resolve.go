package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"orgbot/internal/clock"
	"orgbot/internal/reminder"
)

// Settings is the typed form of a Config after defaults.
type Settings struct {
	Location     *time.Location
	ReminderTime reminder.TimeOfDay

	PollTimeout time.Duration
	BusyTimeout time.Duration
	RetryDelay  time.Duration
	TaskTimeout time.Duration
	SendTimeout time.Duration

	// AdminBirth is midnight of admin.birth_date in Location.
	AdminBirth time.Time
}

// Resolve applies defaults to a copy of c and parses every typed field.
// All problems are reported together.
func Resolve(c *Config) (Settings, error) {
	cfg := *c
	ApplyDefaults(&cfg)

	var (
		st   Settings
		errs []error
		err  error
	)
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	st.Location, err = clock.LoadZone(cfg.Scheduler.Timezone, cfg.Scheduler.UTCOffset)
	if err != nil {
		collect(fmt.Errorf("scheduler.timezone/utc_offset: %w", err))
		st.Location = time.UTC
	}
	st.ReminderTime, err = reminder.ParseTimeOfDay(cfg.Scheduler.ReminderTime)
	if err != nil {
		collect(fmt.Errorf("scheduler.reminder_time: %w", err))
	}

	st.PollTimeout, err = parseDuration("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	collect(err)
	st.BusyTimeout, err = parseDuration("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	collect(err)
	st.RetryDelay, err = parseDuration("scheduler.retry_delay", cfg.Scheduler.RetryDelay, time.Minute)
	collect(err)
	st.TaskTimeout, err = parseDuration("scheduler.task_timeout", cfg.Scheduler.TaskTimeout, 2*time.Minute)
	collect(err)
	st.SendTimeout, err = parseDuration("notifier.send_timeout", cfg.Notifier.SendTimeout, 10*time.Second)
	collect(err)

	if _, err := cron.ParseStandard(cfg.Scheduler.ResyncCron); err != nil {
		collect(fmt.Errorf("scheduler.resync_cron: %w", err))
	}
	if *cfg.Scheduler.EventRetries < 0 || *cfg.Scheduler.BirthdayRetries < 0 {
		collect(errors.New("scheduler: retry counts must be >= 0"))
	}

	st.AdminBirth, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(cfg.Admin.BirthDate), st.Location)
	if err != nil {
		collect(fmt.Errorf("admin.birth_date: %w", err))
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return st, nil
}
