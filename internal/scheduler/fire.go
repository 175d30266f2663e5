package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orgbot/internal/domain"
	"orgbot/internal/eventbus"
	"orgbot/internal/notifier"
	"orgbot/internal/reminder"
	logx "orgbot/pkg/logx"
)

// OnEventFire delivers an event reminder. A deleted event, a fire date that
// is not today, or a retry recipient no longer on the list make it a no-op.
// Send failures are retried per recipient and never returned.
func (s *Service) OnEventFire(ctx context.Context, p reminder.EventPayload) error {
	return s.fireEvent(ctx, uuid.NewString(), p)
}

// OnBirthdayFire announces a member's upcoming birthday to every other member.
func (s *Service) OnBirthdayFire(ctx context.Context, p reminder.BirthdayPayload) error {
	return s.fireBirthday(ctx, uuid.NewString(), p)
}

func (s *Service) fireEvent(ctx context.Context, fireID string, p reminder.EventPayload) error {
	log := s.log.With(
		logx.String("fire_id", fireID),
		logx.Int64("event_id", p.EventID),
		logx.String("fire_date", p.FireDate.String()),
		logx.Int("attempt", p.Attempt),
	)

	ev, err := s.store.GetEvent(ctx, p.EventID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("event gone; reminder skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event %d: %w", p.EventID, err)
	}
	if today := reminder.DayOf(s.now()); p.FireDate != today {
		if p.Attempt > 0 {
			log.Debug("retry past midnight; reminder skipped",
				logx.String("today", today.String()),
				logx.Int64("recipient", p.Recipient),
			)
			return nil
		}
		log.Debug("stale fire date; reminder skipped", logx.String("today", today.String()))
		return nil
	}

	recipients := ev.Recipients
	if p.Recipient != 0 {
		m, ok := ev.HasRecipient(p.Recipient)
		if !ok {
			log.Debug("recipient removed; retry skipped", logx.Int64("recipient", p.Recipient))
			return nil
		}
		recipients = []domain.Member{m}
	}

	text := EventText(ev)
	for _, m := range recipients {
		err := s.notify.Send(ctx, m.Handle, text, notifier.FormatPlain)
		if err == nil {
			s.delivered(fireID, p.Key(), m.ID, p.Attempt)
			continue
		}
		next := p
		next.Recipient = m.ID
		next.Attempt = p.Attempt + 1
		s.failed(log, fireID, p.Key(), m.ID, p.Attempt, s.cfg.EventRetries, err, next)
	}
	return nil
}

func (s *Service) fireBirthday(ctx context.Context, fireID string, p reminder.BirthdayPayload) error {
	log := s.log.With(
		logx.String("fire_id", fireID),
		logx.Int64("member_id", p.MemberID),
		logx.Int("year", p.Year),
		logx.Int("attempt", p.Attempt),
	)

	m, err := s.store.GetMember(ctx, p.MemberID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("member gone; birthday reminder skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load member %d: %w", p.MemberID, err)
	}

	today := s.today()
	bday := reminder.ObservedBirthday(p.Year, m.BirthDate.Month(), m.BirthDate.Day(), s.cfg.Location)
	if bday.Before(today) {
		log.Debug("birthday already passed; reminder skipped")
		return nil
	}

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	var recipients []domain.Member
	for _, r := range members {
		switch {
		case r.ID == m.ID:
		case p.Recipient != 0 && r.ID != p.Recipient:
		default:
			recipients = append(recipients, r)
		}
	}
	if p.Recipient != 0 && len(recipients) == 0 {
		log.Debug("recipient removed; retry skipped", logx.Int64("recipient", p.Recipient))
		return nil
	}

	text := BirthdayText(m, bday, DaysBetween(today, bday))
	for _, r := range recipients {
		err := s.notify.Send(ctx, r.Handle, text, notifier.FormatMarkdown)
		if err == nil {
			s.delivered(fireID, p.Key(), r.ID, p.Attempt)
			continue
		}
		next := p
		next.Recipient = r.ID
		next.Attempt = p.Attempt + 1
		s.failed(log, fireID, p.Key(), r.ID, p.Attempt, s.cfg.BirthdayRetries, err, next)
	}
	return nil
}

func (s *Service) fireTest(ctx context.Context, fireID string, p reminder.TestPayload) error {
	if err := s.notify.Send(ctx, p.Handle, p.Text, notifier.FormatPlain); err != nil {
		s.log.Warn("test message failed", logx.String("fire_id", fireID), logx.Int64("handle", p.Handle), logx.Err(err))
		return err
	}
	s.delivered(fireID, p.Key(), 0, 0)
	return nil
}

type retryable interface {
	Key() reminder.JobKey
}

func (s *Service) delivered(fireID string, key reminder.JobKey, recipient int64, attempt int) {
	eventbus.Emit(s.bus, eventbus.ReminderDelivered, Outcome{
		FireID: fireID, Key: key.String(), Recipient: recipient, Attempt: attempt, At: s.now(),
	})
}

// failed schedules next after RetryDelay while attempt < maxRetries, else logs
// the failure as final.
func (s *Service) failed(log logx.Logger, fireID string, key reminder.JobKey, recipient int64, attempt, maxRetries int, cause error, next retryable) {
	out := Outcome{FireID: fireID, Key: key.String(), Recipient: recipient, Attempt: attempt, At: s.now(), Error: cause.Error()}

	if attempt < maxRetries {
		at := s.now().Add(s.cfg.RetryDelay)
		_, err := s.jobs.Upsert(next.Key(), at, next)
		if err == nil {
			log.Warn("reminder send failed; retry scheduled",
				logx.Int64("recipient", recipient),
				logx.Time("retry_at", at),
				logx.Err(cause),
			)
			eventbus.Emit(s.bus, eventbus.ReminderRetry, out)
			return
		}
		log.Error("retry not scheduled", logx.Int64("recipient", recipient), logx.Err(err))
	}

	log.Error("reminder send failed; final",
		logx.Int64("recipient", recipient),
		logx.Err(cause),
	)
	eventbus.Emit(s.bus, eventbus.ReminderFailed, out)
}

// DaysBetween counts calendar days from a to b in a's zone.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	da := domain.DateOf(a, loc)
	db := domain.DateOf(b, loc)
	return int(db.Sub(da).Hours()+12) / 24
}
