package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"orgbot/internal/domain"
	"orgbot/internal/storage"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

func (b *Bot) handleAdminPanel(ctx context.Context, req *Request) error {
	return req.Reply(ctx, textAdminPanel, &kit.SendOptions{Inline: [][]kit.InlineButton{
		{{Text: "👥 Управление пользователями", Data: cbManageUsers}},
		{{Text: "🗓 Управление событиями", Data: cbManageEventsAdm}},
	}})
}

func (b *Bot) cbUsers(ctx context.Context, req *Request, _ int64) error {
	ms, err := b.store.ListMembers(ctx)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		return req.Edit(ctx, textNoUsers, nil)
	}
	rows := make([][]kit.InlineButton, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []kit.InlineButton{
			{Text: "🔼 Сделать админом", Data: fmt.Sprintf("%s%d", cbPromotePrefix, m.ID)},
			{Text: "❌ Удалить", Data: fmt.Sprintf("%s%d", cbDeleteUserPrefix, m.ID)},
		})
	}
	return req.Edit(ctx, usersListText(ms), &kit.SendOptions{Inline: rows})
}

func (b *Bot) cbPromote(ctx context.Context, req *Request, id int64) error {
	m, err := b.store.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return req.Edit(ctx, textUserNotFound, nil)
	}
	if err != nil {
		return err
	}
	if err := b.store.SetAdmin(ctx, id, true); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return req.Edit(ctx, textUserNotFound, nil)
		}
		return err
	}
	req.Logger.Info("member promoted", logx.Int64("member_id", id), logx.Int64("by", req.Member.ID))
	return req.Edit(ctx, fmt.Sprintf("✅ %s теперь администратор.", m.FullName), nil)
}

// cbDeleteUser removes a member together with the events they created and
// every reminder tied to either.
func (b *Bot) cbDeleteUser(ctx context.Context, req *Request, id int64) error {
	m, err := b.store.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return req.Edit(ctx, textUserNotFound, nil)
	}
	if err != nil {
		return err
	}
	evIDs, err := b.store.DeleteMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return req.Edit(ctx, textUserNotFound, nil)
	}
	if err != nil {
		return err
	}
	cancelled := b.rem.CancelBirthdayReminders(id)
	for _, evID := range evIDs {
		cancelled += b.rem.CancelEventReminders(evID)
	}
	req.Logger.Info("member deleted",
		logx.Int64("member_id", id),
		logx.Int("events", len(evIDs)),
		logx.Int("cancelled_jobs", cancelled),
	)
	return req.Edit(ctx, fmt.Sprintf("🗑 Пользователь %s удалён.", m.FullName), nil)
}

func (b *Bot) cbAllEvents(ctx context.Context, req *Request, _ int64) error {
	evs, err := b.store.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(evs) == 0 {
		return req.Edit(ctx, textNoEvents, nil)
	}
	var sb strings.Builder
	sb.WriteString(textAllEventsHead)
	rows := make([][]kit.InlineButton, 0, len(evs))
	for _, ev := range evs {
		fmt.Fprintf(&sb, "\n• %d. «%s» — %s (создатель: %s)",
			ev.ID, ev.Title, domain.FormatDate(ev.Date), ev.CreatorName)
		rows = append(rows, []kit.InlineButton{{
			Text: fmt.Sprintf("❌ Удалить %d", ev.ID),
			Data: fmt.Sprintf("%s%d", cbAdminDelPrefix, ev.ID),
		}})
	}
	return req.Edit(ctx, sb.String(), &kit.SendOptions{Inline: rows})
}

func (b *Bot) cbAdminDeleteEvent(ctx context.Context, req *Request, id int64) error {
	ev, err := b.store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return req.Edit(ctx, textEventNotFound, nil)
	}
	if err != nil {
		return err
	}
	if err := b.deleteEvent(ctx, req, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return req.Edit(ctx, textEventNotFound, nil)
		}
		return err
	}
	return req.Edit(ctx, fmt.Sprintf("✅ Событие «%s» удалено.", ev.Title), nil)
}
