package bot

import (
	"context"
	"errors"
	"fmt"

	"orgbot/internal/domain"
	"orgbot/internal/storage"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

func (b *Bot) startEvent(ctx context.Context, req *Request) error {
	s := req.Session
	s.flow, s.step = flowEvent, stepEvtTitle
	return req.Reply(ctx, textAskTitle, &kit.SendOptions{Keyboard: removeKeyboard()})
}

func (b *Bot) eventStep(ctx context.Context, req *Request) error {
	s := req.Session
	switch s.step {
	case stepEvtTitle:
		if req.Text == "" {
			return req.Reply(ctx, textEmptyField, nil)
		}
		s.title = req.Text
		s.step = stepEvtDesc
		return req.Reply(ctx, textAskDesc, nil)

	case stepEvtDesc:
		if req.Text == "" {
			return req.Reply(ctx, textEmptyField, nil)
		}
		s.desc = req.Text
		s.step = stepEvtInterval
		return req.Reply(ctx, textAskInterval, &kit.SendOptions{Keyboard: intervalKeyboard()})

	case stepEvtInterval:
		days, ok := domain.IntervalByLabel(req.Text)
		if !ok {
			return req.Reply(ctx, textBadInterval, nil)
		}
		s.interval = days
		s.step = stepEvtDate
		return req.Reply(ctx, textAskEventDate, nil)

	case stepEvtDate:
		d, err := domain.ParseUserDate(req.Text, b.cfg.Location)
		if err != nil {
			return req.Reply(ctx, textBadEventDate, nil)
		}
		if err := domain.ValidateEventDate(d, b.today()); err != nil {
			return req.Reply(ctx, textPastEventDate, nil)
		}
		s.date = d
		return b.askRecipients(ctx, req)

	case stepEvtRecipients:
		if req.Text == btnDone {
			return b.finishEvent(ctx, req)
		}
		ids, ok := s.byName[req.Text]
		if !ok {
			return req.Reply(ctx, textBadRecipient, nil)
		}
		if s.picked[req.Text] {
			return req.Reply(ctx, fmt.Sprintf("%s уже в списке.", req.Text), nil)
		}
		s.picked[req.Text] = true
		s.recipients = append(s.recipients, ids...)
		return req.Reply(ctx, fmt.Sprintf("Добавлен: %s", req.Text), nil)
	}
	return nil
}

func (b *Bot) askRecipients(ctx context.Context, req *Request) error {
	s := req.Session
	members, err := b.store.ListMembers(ctx)
	if err != nil {
		return err
	}
	s.byName = make(map[string][]int64, len(members))
	s.picked = map[string]bool{}
	s.recipients = nil
	names := make([]string, 0, len(members))
	for _, m := range members {
		if _, seen := s.byName[m.FullName]; !seen {
			names = append(names, m.FullName)
		}
		s.byName[m.FullName] = append(s.byName[m.FullName], m.ID)
	}
	s.step = stepEvtRecipients
	return req.Reply(ctx, textAskRecipients, &kit.SendOptions{Keyboard: columnKeyboard(names, false, btnDone)})
}

func (b *Bot) finishEvent(ctx context.Context, req *Request) error {
	s := req.Session
	if req.Member == nil {
		s.reset()
		return req.Reply(ctx, textNotRegistered, &kit.SendOptions{Keyboard: regMenu()})
	}
	in := domain.EventInput{
		Title:        s.title,
		Description:  s.desc,
		Date:         s.date,
		CreatorID:    req.Member.ID,
		IntervalDays: s.interval,
		RecipientIDs: s.recipients,
	}
	if err := domain.ValidateEventInput(in, b.today()); err != nil {
		if errors.Is(err, domain.ErrEventInPast) {
			s.step = stepEvtDate
			return req.Reply(ctx, textPastEventDate, &kit.SendOptions{Keyboard: removeKeyboard()})
		}
		return err
	}

	ev, err := b.store.CreateEvent(ctx, in)
	if err != nil {
		return err
	}
	s.reset()

	saved := textEventSaved
	n, err := b.rem.ScheduleEventReminders(ctx, ev.ID, ev.Reminder.IntervalDays)
	if err != nil {
		req.Logger.Warn("event reminders not scheduled", logx.Int64("event_id", ev.ID), logx.Err(err))
		saved = textEventNoRemind
	}
	req.Logger.Info("event created",
		logx.Int64("event_id", ev.ID),
		logx.Int("recipients", len(ev.Recipients)),
		logx.Int("jobs", n),
	)

	if err := req.Reply(ctx, saved, &kit.SendOptions{Keyboard: removeKeyboard()}); err != nil {
		return err
	}
	return b.showStart(ctx, req)
}

func (b *Bot) handleEventsList(ctx context.Context, req *Request) error {
	evs, err := b.store.ListEvents(ctx)
	if err != nil {
		return err
	}
	opt := &kit.SendOptions{Keyboard: menuFor(req.Member)}
	if len(evs) == 0 {
		return req.Reply(ctx, textNoEvents, opt)
	}
	return req.Reply(ctx, eventsListText(evs), opt)
}

func (b *Bot) handleOwnEvents(ctx context.Context, req *Request) error {
	evs, err := b.store.ListEventsByCreator(ctx, req.Member.ID)
	if err != nil {
		return err
	}
	if len(evs) == 0 {
		return req.Reply(ctx, textNoOwnEvents, &kit.SendOptions{Keyboard: menuFor(req.Member)})
	}

	lines := textOwnEventsHead
	buttons := make([][]kit.InlineButton, 0, len(evs))
	for _, ev := range evs {
		lines += fmt.Sprintf("\n• %s (%s)", ev.Title, domain.FormatDate(ev.Date))
		buttons = append(buttons, []kit.InlineButton{{
			Text: fmt.Sprintf("Удалить «%s»", ev.Title),
			Data: fmt.Sprintf("%s%d", cbDeleteOwnPrefix, ev.ID),
		}})
	}
	if err := req.Reply(ctx, lines, nil); err != nil {
		return err
	}
	return req.Reply(ctx, textChooseAction, &kit.SendOptions{Inline: buttons})
}

// cbDeleteOwnEvent deletes an event on behalf of its creator only.
func (b *Bot) cbDeleteOwnEvent(ctx context.Context, req *Request, id int64) error {
	ev, err := b.store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && ev.CreatorID != req.Member.ID) {
		return req.Edit(ctx, textEventNotFound, nil)
	}
	if err != nil {
		return err
	}
	if err := b.deleteEvent(ctx, req, id); err != nil {
		return err
	}
	return req.Edit(ctx, textEventDeleted, nil)
}

func (b *Bot) deleteEvent(ctx context.Context, req *Request, id int64) error {
	if err := b.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	n := b.rem.CancelEventReminders(id)
	req.Logger.Info("event deleted", logx.Int64("event_id", id), logx.Int("cancelled_jobs", n))
	return nil
}
