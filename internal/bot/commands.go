package bot

import (
	"context"
	"time"

	"orgbot/internal/notifier"
	"orgbot/internal/reminder"
	"orgbot/internal/scheduler"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

func (b *Bot) handleStart(ctx context.Context, req *Request) error {
	req.Session.reset()
	return b.showStart(ctx, req)
}

func (b *Bot) showStart(ctx context.Context, req *Request) error {
	if req.Member == nil {
		return req.Reply(ctx, textChooseAction, &kit.SendOptions{Keyboard: regMenu()})
	}
	return req.Reply(ctx, welcomeText(*req.Member), &kit.SendOptions{Keyboard: mainMenu(req.Member.IsAdmin)})
}

func (b *Bot) handleCancel(ctx context.Context, req *Request) error {
	text := textRegCancelled
	if req.Session.flow == flowEvent {
		text = textEvtCancelled
	}
	req.Session.reset()
	return req.Reply(ctx, text, &kit.SendOptions{Keyboard: removeKeyboard()})
}

func (b *Bot) handleHelp(ctx context.Context, req *Request) error {
	return req.Reply(ctx, helpText(b.cfg.ReminderTime.String()), &kit.SendOptions{
		ParseMode: kit.ParseModeMarkdown,
		Keyboard:  menuFor(req.Member),
	})
}

func (b *Bot) handleTest(ctx context.Context, req *Request) error {
	if err := b.rem.ScheduleTest(req.Chat.ChatID, scheduler.TestText, time.Minute); err != nil {
		return err
	}
	return req.Reply(ctx, textTestScheduled, nil)
}

func (b *Bot) handleTestMe(ctx context.Context, req *Request) error {
	return b.notify.Send(ctx, req.Chat.ChatID, textTestMe, notifier.FormatPlain)
}

// handleTestBirthday sends the sender their own birthday announcement as if
// it were lead days ahead.
func (b *Bot) handleTestBirthday(ctx context.Context, req *Request) error {
	m := *req.Member
	day := b.today().AddDate(0, 0, b.cfg.LeadDays)
	text := scheduler.BirthdayText(m, day, b.cfg.LeadDays)
	if err := b.notify.Send(ctx, req.Chat.ChatID, text, notifier.FormatMarkdown); err != nil {
		return err
	}
	req.Logger.Debug("test birthday sent", logx.Int64("member_id", m.ID), logx.String("day", reminder.DayOf(day).String()))
	return req.Reply(ctx, textTestBdaySent, nil)
}
