package scheduler

import (
	"context"
	"fmt"
	"time"

	"orgbot/internal/domain"
	"orgbot/internal/jobstore"
	"orgbot/internal/reminder"
	logx "orgbot/pkg/logx"
)

// ScheduleEventReminders replaces every pending job of the event with one job
// per future fire instant and returns how many were installed. Instants are
// stepped from today, the day scheduling runs, up to the event date.
//
// The old jobs are swept before the new ones go in. If the job table stops
// midway the event keeps only the jobs counted in the return value.
func (s *Service) ScheduleEventReminders(ctx context.Context, eventID int64, intervalDays int) (int, error) {
	if err := domain.ValidateInterval(intervalDays); err != nil {
		return 0, err
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("schedule event %d: %w", eventID, err)
	}
	return s.scheduleEvent(ev, intervalDays)
}

func (s *Service) scheduleEvent(ev domain.Event, intervalDays int) (int, error) {
	now := s.now()
	seq, err := reminder.Generate(s.today(), ev.Date, intervalDays, s.cfg.ReminderTime, s.cfg.Location)
	if err != nil {
		return 0, err
	}
	var due []time.Time
	for at := range seq {
		if at.After(now) {
			due = append(due, at)
		}
	}
	if s.jobs.Stopped() {
		return 0, fmt.Errorf("schedule event %d: %w", ev.ID, jobstore.ErrStopped)
	}

	s.jobs.CancelEvent(ev.ID)
	n := 0
	for _, at := range due {
		p := reminder.EventPayload{EventID: ev.ID, FireDate: reminder.DayOf(at)}
		if _, err := s.jobs.Upsert(p.Key(), at, p); err != nil {
			return n, fmt.Errorf("schedule event %d: %w", ev.ID, err)
		}
		n++
	}
	s.log.Debug("event reminders scheduled",
		logx.Int64("event_id", ev.ID),
		logx.Int("interval_days", intervalDays),
		logx.Int("jobs", n),
	)
	return n, nil
}

// CancelEventReminders drops every pending job of the event, retries included.
func (s *Service) CancelEventReminders(eventID int64) int {
	return s.jobs.CancelEvent(eventID)
}

// ScheduleBirthdayReminder installs the reminder for the member's next
// birthday if its instant is still ahead. Jobs for other years are dropped
// either way. It reports whether a job was installed.
func (s *Service) ScheduleBirthdayReminder(ctx context.Context, memberID int64, birthDate time.Time) (bool, error) {
	now := s.now()
	if err := domain.ValidateBirthDate(birthDate, now); err != nil {
		return false, err
	}
	loc := s.cfg.Location
	next := reminder.NextOccurrence(birthDate.Month(), birthDate.Day(), s.today())
	at := reminder.ReminderInstant(next, s.cfg.BirthdayLeadDays, s.cfg.ReminderTime, loc)
	year := next.Year()

	s.jobs.CancelWhere(func(k reminder.JobKey) bool {
		return k.IsBirthday() && k.EntityID == memberID && k.Day.Year != year
	})
	if !at.After(now) {
		s.log.Debug("birthday reminder already past",
			logx.Int64("member_id", memberID),
			logx.Time("birthday", next),
			logx.Time("at", at),
		)
		return false, nil
	}

	p := reminder.BirthdayPayload{MemberID: memberID, Year: year}
	if _, err := s.jobs.Upsert(p.Key(), at, p); err != nil {
		return false, fmt.Errorf("schedule birthday %d: %w", memberID, err)
	}
	return true, nil
}

func (s *Service) CancelBirthdayReminders(memberID int64) int {
	return s.jobs.CancelBirthday(memberID)
}

// ScheduleTest sends text to handle after delay. A second request from the
// same handle replaces the first.
func (s *Service) ScheduleTest(handle int64, text string, delay time.Duration) error {
	p := reminder.TestPayload{Handle: handle, Text: text}
	_, err := s.jobs.Upsert(p.Key(), s.now().Add(delay), p)
	return err
}

// Resync rebuilds all jobs from the store: one birthday reminder per member
// and the reminders of every event dated today or later. Failures of single
// entities are logged and counted.
func (s *Service) Resync(ctx context.Context) (ResyncReport, error) {
	rep, err := s.resyncBirthdays(ctx)
	if err != nil {
		return rep, err
	}

	events, err := s.store.ListUpcomingEvents(ctx, s.today())
	if err != nil {
		return rep, fmt.Errorf("resync events: %w", err)
	}
	for _, ev := range events {
		n, err := s.scheduleEvent(ev, ev.Reminder.IntervalDays)
		if err != nil {
			rep.Failed++
			s.log.Warn("resync event failed", logx.Int64("event_id", ev.ID), logx.Err(err))
			continue
		}
		rep.Events++
		rep.EventJobs += n
	}

	s.log.Info("resync done",
		logx.Int("birthdays", rep.Birthdays),
		logx.Int("events", rep.Events),
		logx.Int("event_jobs", rep.EventJobs),
		logx.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (s *Service) resyncBirthdays(ctx context.Context) (ResyncReport, error) {
	var rep ResyncReport
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return rep, fmt.Errorf("resync members: %w", err)
	}
	for _, m := range members {
		ok, err := s.ScheduleBirthdayReminder(ctx, m.ID, m.BirthDate)
		if err != nil {
			rep.Failed++
			s.log.Warn("resync birthday failed", logx.Int64("member_id", m.ID), logx.Err(err))
			continue
		}
		if ok {
			rep.Birthdays++
		}
	}
	return rep, nil
}
