package bot

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"orgbot/internal/clock"
	"orgbot/internal/domain"
	"orgbot/internal/notifier"
	"orgbot/internal/reminder"
	"orgbot/internal/runtime/supervisor"
	"orgbot/internal/storage"
	kit "orgbot/internal/transport"
	logx "orgbot/pkg/logx"
)

type Config struct {
	// Workers is the number of chat shards handled in parallel.
	Workers        int
	HandlerTimeout time.Duration
	SessionTTL     time.Duration
	Location       *time.Location
	ReminderTime   reminder.TimeOfDay
	LeadDays       int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 30 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.Location == nil {
		c.Location = time.FixedZone("UTC+3", 3*3600)
	}
	if c.LeadDays <= 0 {
		c.LeadDays = reminder.DefaultLeadDays
	}
	return c
}

// Reminders is the scheduling side the bot drives. *scheduler.Service
// satisfies it.
type Reminders interface {
	ScheduleEventReminders(ctx context.Context, eventID int64, intervalDays int) (int, error)
	CancelEventReminders(eventID int64) int
	ScheduleBirthdayReminder(ctx context.Context, memberID int64, birthDate time.Time) (bool, error)
	CancelBirthdayReminders(memberID int64) int
	ScheduleTest(handle int64, text string, delay time.Duration) error
}

type Deps struct {
	Adapter   kit.Adapter
	Store     storage.Store
	Reminders Reminders
	Notifier  notifier.Notifier
	Clock     clock.Clock
	Log       logx.Logger
}

type route struct {
	access Access
	handle HandlerFunc
}

type callbackRoute struct {
	prefix string
	// withID routes carry a numeric id after the prefix.
	withID bool
	access Access
	handle func(ctx context.Context, req *Request, id int64) error
}

type Bot struct {
	cfg      Config
	adapter  kit.Adapter
	store    storage.Store
	rem      Reminders
	notify   notifier.Notifier
	clk      clock.Clock
	log      logx.Logger
	sessions *sessions

	commands  map[string]route
	buttons   map[string]route
	callbacks []callbackRoute
}

func New(cfg Config, d Deps) *Bot {
	cfg = cfg.withDefaults()
	if d.Clock == nil {
		d.Clock = clock.System(cfg.Location)
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	b := &Bot{
		cfg:      cfg,
		adapter:  d.Adapter,
		store:    d.Store,
		rem:      d.Reminders,
		notify:   d.Notifier,
		clk:      d.Clock,
		log:      d.Log,
		sessions: newSessions(cfg.SessionTTL, d.Clock.Now),
	}
	b.register()
	return b
}

func (b *Bot) register() {
	b.commands = map[string]route{
		"start":     {AccessEveryone, b.handleStart},
		"cancel":    {AccessEveryone, b.handleCancel},
		"help":      {AccessEveryone, b.handleHelp},
		"test":      {AccessEveryone, b.handleTest},
		"test_me":   {AccessEveryone, b.handleTestMe},
		"test_bday": {AccessMember, b.handleTestBirthday},
	}
	b.buttons = map[string]route{
		btnMenu:         {AccessEveryone, b.handleStart},
		btnRegister:     {AccessEveryone, b.startRegistration},
		btnEvents:       {AccessEveryone, b.handleEventsList},
		btnCreateEvent:  {AccessMember, b.startEvent},
		btnManageEvents: {AccessMember, b.handleOwnEvents},
		btnHelp:         {AccessEveryone, b.handleHelp},
		btnAdminPanel:   {AccessAdmin, b.handleAdminPanel},
	}
	// longer prefixes first: "admin_delete_evt_" must win over "delete_evt_"
	b.callbacks = []callbackRoute{
		{prefix: cbManageUsers, access: AccessAdmin, handle: b.cbUsers},
		{prefix: cbManageEventsAdm, access: AccessAdmin, handle: b.cbAllEvents},
		{prefix: cbAdminDelPrefix, withID: true, access: AccessAdmin, handle: b.cbAdminDeleteEvent},
		{prefix: cbPromotePrefix, withID: true, access: AccessAdmin, handle: b.cbPromote},
		{prefix: cbDeleteUserPrefix, withID: true, access: AccessAdmin, handle: b.cbDeleteUser},
		{prefix: cbDeleteOwnPrefix, withID: true, access: AccessMember, handle: b.cbDeleteOwnEvent},
	}
}

// MenuCommands is the "/" menu published to the platform.
func MenuCommands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "start", Description: "Главное меню"},
		{Command: "help", Description: "Справка"},
		{Command: "cancel", Description: "Отменить текущий шаг"},
		{Command: "test_me", Description: "Проверить доставку сообщений"},
	}
}

// Run handles updates until ctx is done or updates is closed. Updates of one
// chat always land on the same worker, in arrival order.
func (b *Bot) Run(ctx context.Context, updates <-chan kit.Update) error {
	sup := supervisor.New(ctx,
		supervisor.WithLogger(b.log.With(logx.String("comp", "bot.router"))),
		supervisor.WithCancelOnError(false),
	)

	shards := make([]chan kit.Update, b.cfg.Workers)
	for i := range shards {
		ch := make(chan kit.Update, 64)
		shards[i] = ch
		sup.GoRestart("bot.worker."+strconv.Itoa(i), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case up, ok := <-ch:
					if !ok {
						return nil
					}
					b.Handle(c, up)
				}
			}
		}, supervisor.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}
	sup.GoRestart("bot.sessions.sweep", func(c context.Context) error {
		t := time.NewTicker(b.cfg.SessionTTL)
		defer t.Stop()
		for {
			select {
			case <-c.Done():
				return nil
			case <-t.C:
				if n := b.sessions.sweep(); n > 0 {
					b.log.Debug("idle sessions dropped", logx.Int("count", n))
				}
			}
		}
	})

	b.log.Info("bot dispatcher started", logx.Int("workers", len(shards)))
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		b.log.Info("bot dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case shards[shardOf(chatOf(up), len(shards))] <- up:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func chatOf(up kit.Update) int64 {
	switch {
	case up.Message != nil:
		return up.Message.ChatID
	case up.Callback != nil:
		return up.Callback.ChatID
	}
	return 0
}

func shardOf(chat int64, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(chat, 10)))
	return int(h.Sum32() % uint32(n))
}

// Handle processes one update synchronously.
func (b *Bot) Handle(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message != nil {
			b.handleMessage(ctx, up)
		}
	case kit.UpdateCallback:
		if up.Callback != nil {
			b.handleCallback(ctx, up)
		}
	}
}

func (b *Bot) newRequest(ctx context.Context, up kit.Update, chat, from int64) *Request {
	rid := uuid.NewString()[:8]
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: chat},
		FromID:  from,
		ReqID:   rid,
		Session: b.sessions.get(chat),
		Adapter: b.adapter,
		Logger: b.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", chat),
			logx.Int64("from_id", from),
		),
	}
	m, err := b.store.GetMemberByHandle(ctx, from)
	switch {
	case err == nil:
		req.Member = &m
	case !errors.Is(err, storage.ErrNotFound):
		req.Logger.Warn("member lookup failed", logx.Err(err))
	}
	return req
}

func (b *Bot) run(ctx context.Context, req *Request, access Access, h HandlerFunc) {
	final := Chain(h,
		MWPanicRecover(),
		MWRequestLog(),
		MWTimeout(b.cfg.HandlerTimeout),
		MWAccess(access),
	)
	if err := final(ctx, req); err != nil {
		_ = req.Reply(ctx, textSomethingWrong, nil)
	}
}

func (b *Bot) handleMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if !msg.IsPrivate {
		return
	}
	req := b.newRequest(ctx, up, msg.ChatID, msg.FromID)
	req.Text = strings.TrimSpace(msg.Text)

	if name, ok := commandName(req.Text); ok {
		r, ok := b.commands[name]
		if !ok {
			req.Route = "/" + name
			b.run(ctx, req, AccessEveryone, replyText(textUnknown))
			return
		}
		req.Route = "/" + name
		b.run(ctx, req, r.access, r.handle)
		return
	}

	// The entry buttons and "Меню" restart or leave a wizard; any other text
	// belongs to the active wizard step.
	r, isButton := b.buttons[req.Text]
	switch {
	case isButton && (req.Text == btnMenu || req.Text == btnRegister || req.Text == btnCreateEvent):
	case req.Session.active():
		req.Route = "wizard"
		b.run(ctx, req, AccessEveryone, b.handleWizard)
		return
	}
	if !isButton {
		req.Route = "unknown"
		b.run(ctx, req, AccessEveryone, replyText(textUnknown))
		return
	}
	req.Session.reset()
	req.Route = req.Text
	b.run(ctx, req, r.access, r.handle)
}

func (b *Bot) handleCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	req := b.newRequest(ctx, up, cb.ChatID, cb.FromID)
	req.Data = strings.TrimSpace(cb.Data)
	defer func() { _ = b.adapter.AnswerCallback(ctx, cb.ID, "") }()

	for _, r := range b.callbacks {
		var id int64
		if r.withID {
			rest, ok := strings.CutPrefix(req.Data, r.prefix)
			if !ok {
				continue
			}
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				continue
			}
			id = n
		} else if req.Data != r.prefix {
			continue
		}
		req.Route = "cb:" + r.prefix
		h := r.handle
		b.run(ctx, req, r.access, func(ctx context.Context, req *Request) error { return h(ctx, req, id) })
		return
	}
	req.Logger.Debug("unknown callback", logx.String("data", req.Data))
}

// commandName extracts "start" from "/start@orgbot arg".
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), word != ""
}

func replyText(text string) HandlerFunc {
	return func(ctx context.Context, req *Request) error { return req.Reply(ctx, text, nil) }
}

func (b *Bot) now() time.Time { return b.clk.Now().In(b.cfg.Location) }

func (b *Bot) today() time.Time { return domain.DateOf(b.now(), b.cfg.Location) }
