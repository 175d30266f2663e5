package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"orgbot/internal/eventbus"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

var ErrEmptyText = errors.New("notifier: empty text")

// Sender is the part of a transport adapter the notifier uses.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
}

// Service sends through a transport adapter behind a shared rate limit.
// It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender Sender
	log    logx.Logger
	bus    eventbus.Bus

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender Sender, log logx.Logger, bus eventbus.Bus) *Service {
	s := &Service{sender: sender, log: log, bus: bus}
	s.Apply(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	s.mu.Lock()
	s.cfg = cfg
	// burst = rate so short spikes pass without waiting
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	s.mu.Unlock()
}

func (s *Service) Send(ctx context.Context, handle int64, text string, f Format) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	lim, timeout := s.limiter, s.cfg.SendTimeout
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	opt := &kit.SendOptions{DisablePreview: true}
	if f == FormatMarkdown {
		opt.ParseMode = kit.ParseModeMarkdown
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	_, err := s.sender.SendText(callCtx, kit.ChatTarget{ChatID: handle}, text, opt)
	cancel()

	now := time.Now()
	item := HistoryItem{At: now, Handle: handle}
	if err != nil {
		item.Error = err.Error()
		s.log.Debug("send failed", logx.Int64("handle", handle), logx.Err(err))
		eventbus.Emit(s.bus, eventbus.NotifierFailed, NotificationEvent{Handle: handle, At: now, Error: item.Error})
		s.appendHistory(item)
		return fmt.Errorf("send to %d: %w", handle, err)
	}
	eventbus.Emit(s.bus, eventbus.NotifierSent, NotificationEvent{Handle: handle, At: now})
	s.appendHistory(item)
	return nil
}

// Snapshot returns recent deliveries, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(item HistoryItem) {
	s.mu.Lock()
	n := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > n {
		s.history = s.history[len(s.history)-n:]
	}
	s.hmu.Unlock()
}
