package notifier

import (
	"context"
	"time"
)

// Format selects how the transport renders the text.
type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
)

func (f Format) String() string {
	if f == FormatMarkdown {
		return "markdown"
	}
	return "plain"
}

// Notifier sends one message to one member handle.
type Notifier interface {
	Send(ctx context.Context, handle int64, text string, f Format) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, handle int64, text string, f Format) error

func (fn Func) Send(ctx context.Context, handle int64, text string, f Format) error {
	return fn(ctx, handle, text, f)
}

type Config struct {
	RatePerSec  int
	SendTimeout time.Duration
	HistorySize int
}

type HistoryItem struct {
	At     time.Time `json:"at"`
	Handle int64     `json:"handle"`
	Error  string    `json:"error,omitempty"`
}

// NotificationEvent is the payload of notifier.* bus events.
type NotificationEvent struct {
	Handle int64     `json:"handle"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}
