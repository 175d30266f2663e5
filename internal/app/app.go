// Package app wires configuration, storage, the reminder scheduler, the
// Telegram adapter and the bot into one process with an ordered lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"orgbot/internal/bot"
	"orgbot/internal/clock"
	"orgbot/internal/config"
	"orgbot/internal/eventbus"
	"orgbot/internal/httpapi"
	"orgbot/internal/notifier"
	"orgbot/internal/runtime/supervisor"
	"orgbot/internal/scheduler"
	"orgbot/internal/storage"
	"orgbot/internal/task/engine"
	kit "orgbot/internal/transport"
	telegram "orgbot/internal/transport/telegram/adapter"
	logx "orgbot/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config
	set  config.Settings

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus
	sup  *supervisor.Supervisor

	store   storage.Store
	adapter *telegram.Adapter
	engine  *engine.Service
	sched   *scheduler.Service
	notif   *notifier.Service
	bot     *bot.Bot
	http    *httpapi.Server

	updates chan kit.Update
}

// New loads the config and builds every component. Nothing runs until Start.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	set, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	logs, root := logx.NewService(cfg.LogConfig())
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	store, err := storage.Open(storageConfig(cfg, set), root.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ad, err := telegram.New(telegramConfig(cfg, set), root.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, err
	}

	bus := eventbus.New()
	clk := clock.System(set.Location)
	eng := engine.New(engineConfig(cfg, set), root.With(logx.String("comp", "engine")), bus)
	notif := notifier.New(notifierConfig(cfg, set), ad, root.With(logx.String("comp", "notifier")), bus)
	sched := scheduler.New(schedulerConfig(cfg, set), scheduler.Deps{
		Store:    store,
		Notifier: notif,
		Executor: eng,
		Clock:    clk,
		Log:      root.With(logx.String("comp", "scheduler")),
		Bus:      bus,
	})
	b := bot.New(botConfig(cfg, set), bot.Deps{
		Adapter:   ad,
		Store:     store,
		Reminders: sched,
		Notifier:  notif,
		Clock:     clk,
		Log:       root.With(logx.String("comp", "bot")),
	})

	a := &App{
		cfgm:    cfgm,
		cfg:     cfg,
		set:     set,
		log:     log,
		logs:    logs,
		bus:     bus,
		store:   store,
		adapter: ad,
		engine:  eng,
		sched:   sched,
		notif:   notif,
		bot:     b,
		updates: make(chan kit.Update, 256),
	}
	if cfg.HTTP.Enabled() {
		a.http = httpapi.New(httpConfig(cfg), httpapi.Deps{
			Store:  store,
			Jobs:   sched,
			Engine: eng,
			Log:    root.With(logx.String("comp", "http")),
			Now:    clk.Now,
		})
	}
	return a, nil
}

// Done is closed when the app supervisor stops, after a fatal error or Stop.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start brings the components up leaves first. Reminders are re-synced from
// the store before polling begins so no update can race the initial table.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	run := a.sup.Context()

	if _, _, err := SeedAdmin(run, a.store, a.cfg.Admin, a.set, a.log); err != nil {
		return err
	}

	a.engine.Start(run)
	if err := a.sched.Start(run); err != nil {
		return err
	}
	rep, err := a.sched.Resync(run)
	if err != nil {
		return fmt.Errorf("initial resync: %w", err)
	}
	a.log.Info("reminders restored",
		logx.Int("birthdays", rep.Birthdays),
		logx.Int("events", rep.Events),
		logx.Int("event_jobs", rep.EventJobs),
		logx.Int("failed", rep.Failed),
	)

	if err := a.adapter.Start(run, a.updates); err != nil {
		return err
	}
	menuCtx, cancel := context.WithTimeout(run, 10*time.Second)
	if err := a.adapter.UpdateMenuCommands(menuCtx, bot.MenuCommands()); err != nil {
		a.log.Warn("menu commands not published", logx.Err(err))
	}
	cancel()

	a.sup.Go("bot.dispatch", func(c context.Context) error {
		return a.bot.Run(c, a.updates)
	})

	if a.http != nil {
		if err := a.http.Start(run); err != nil {
			return err
		}
	}

	a.watchEvents()
	a.watchConfig()

	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("app started", logx.String("zone", a.set.Location.String()), logx.Int("jobs", len(a.sched.Jobs())))
	return nil
}

// watchEvents logs reminder outcomes from the bus at debug level.
func (a *App) watchEvents() {
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})
}

// watchConfig applies hot-reloadable sections on file change and warns about
// the rest.
func (a *App) watchConfig() {
	if a.cfgm.Path() == "" {
		return
	}
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(last, next)
				last = next
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
}

func (a *App) applyConfig(prev, next *config.Config) {
	sections, attrs := config.SummarizeChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	if pending := config.RestartRequired(sections); len(pending) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(pending, ",")))
	}

	a.logs.Apply(next.LogConfig())
	if set, err := config.Resolve(next); err != nil {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(notifierConfig(next, set))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

// Stop tears the components down in reverse order. Each step is bounded so
// one stuck component cannot stall the rest.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("adapter", 3*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	if a.http != nil {
		step("http", 2*time.Second, func(c context.Context) error { a.http.Stop(c); return nil })
	}
	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("engine", 3*time.Second, func(c context.Context) error { a.engine.Stop(c); return nil })
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	return a.logs.Close()
}
