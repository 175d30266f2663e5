package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"orgbot/internal/domain"
	"orgbot/internal/storage"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

func (b *Bot) startRegistration(ctx context.Context, req *Request) error {
	if req.Member != nil {
		if err := req.Reply(ctx, textAlreadyMember, nil); err != nil {
			return err
		}
		return b.showStart(ctx, req)
	}
	s := req.Session
	s.flow, s.step = flowRegister, stepRegName
	return req.Reply(ctx, textAskName, &kit.SendOptions{Keyboard: removeKeyboard()})
}

func (b *Bot) handleWizard(ctx context.Context, req *Request) error {
	switch req.Session.flow {
	case flowRegister:
		return b.registrationStep(ctx, req)
	case flowEvent:
		return b.eventStep(ctx, req)
	}
	return nil
}

func (b *Bot) registrationStep(ctx context.Context, req *Request) error {
	s := req.Session
	switch s.step {
	case stepRegName:
		if req.Text == "" {
			return req.Reply(ctx, textEmptyField, nil)
		}
		s.fullName = trimmed(req.Text)
		s.step = stepRegPosition
		return req.Reply(ctx, textAskPosition, &kit.SendOptions{Keyboard: positionsKeyboard()})

	case stepRegPosition:
		if !domain.ValidPosition(req.Text) {
			return req.Reply(ctx, textBadPosition, nil)
		}
		s.position = req.Text
		s.step = stepRegBirth
		return req.Reply(ctx, textAskBirth, &kit.SendOptions{Keyboard: removeKeyboard()})

	case stepRegBirth:
		birth, err := domain.ParseUserDate(req.Text, b.cfg.Location)
		if err != nil {
			return req.Reply(ctx, textBadBirth, nil)
		}
		return b.finishRegistration(ctx, req, birth)
	}
	return nil
}

func (b *Bot) finishRegistration(ctx context.Context, req *Request, birth time.Time) error {
	s := req.Session
	m := domain.Member{
		Handle:    req.FromID,
		FullName:  s.fullName,
		Position:  s.position,
		BirthDate: birth,
	}
	if err := domain.ValidateMember(m, b.today()); err != nil {
		if errors.Is(err, domain.ErrInvalidBirthDate) {
			return req.Reply(ctx, textImpossibleDate, nil)
		}
		return err
	}

	m, err := b.store.CreateMember(ctx, m)
	if errors.Is(err, storage.ErrConflict) {
		s.reset()
		return req.Reply(ctx, textAlreadyMember, nil)
	}
	if err != nil {
		return err
	}
	s.reset()
	req.Member = &m
	req.Logger.Info("member registered", logx.Int64("member_id", m.ID))

	_, schedErr := b.rem.ScheduleBirthdayReminder(ctx, m.ID, m.BirthDate)
	if schedErr != nil {
		req.Logger.Warn("birthday reminder not scheduled", logx.Int64("member_id", m.ID), logx.Err(schedErr))
	}

	if err := req.Reply(ctx, textRegistered, nil); err != nil {
		return err
	}
	if schedErr != nil {
		if err := req.Reply(ctx, textBdayNoRemind, nil); err != nil {
			return err
		}
	}
	return req.Reply(ctx, profileText(m), &kit.SendOptions{Keyboard: mainMenu(m.IsAdmin)})
}

// trimmed collapses runs of whitespace to single spaces.
func trimmed(s string) string { return strings.Join(strings.Fields(s), " ") }
