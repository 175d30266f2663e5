package bot

import (
	"context"

	"orgbot/internal/domain"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessMember
	AccessAdmin
)

// Request is one update on its way through the handlers.
type Request struct {
	Update kit.Update
	Chat   kit.ChatTarget
	FromID int64
	// Text is the trimmed message text; Data the callback payload.
	Text  string
	Data  string
	Route string
	ReqID string

	// Member is the registered sender, nil if not registered.
	Member  *domain.Member
	Session *session

	Adapter kit.Adapter
	Logger  logx.Logger
}

func (r *Request) Reply(ctx context.Context, text string, opt *kit.SendOptions) error {
	_, err := r.Adapter.SendText(ctx, r.Chat, text, opt)
	return err
}

// Edit replaces the message a callback button belongs to. Outside a
// callback it sends a new message instead.
func (r *Request) Edit(ctx context.Context, text string, opt *kit.SendOptions) error {
	cb := r.Update.Callback
	if cb == nil || cb.MessageID == 0 {
		return r.Reply(ctx, text, opt)
	}
	return r.Adapter.EditText(ctx, kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}, text, opt)
}
