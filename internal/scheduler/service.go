package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"orgbot/internal/clock"
	"orgbot/internal/eventbus"
	"orgbot/internal/jobstore"
	"orgbot/internal/notifier"
	"orgbot/internal/reminder"
	"orgbot/internal/task/engine"
	logx "orgbot/pkg/logx"
)

// Deps are the collaborators of a Service. AfterFunc is optional and
// replaces time.AfterFunc for the job timers.
type Deps struct {
	Store     Store
	Notifier  notifier.Notifier
	Executor  Executor
	Clock     clock.Clock
	Log       logx.Logger
	Bus       eventbus.Bus
	AfterFunc jobstore.AfterFunc
}

type Service struct {
	cfg    Config
	store  Store
	notify notifier.Notifier
	exec   Executor
	clk    clock.Clock
	log    logx.Logger
	bus    eventbus.Bus

	jobs *jobstore.Store

	mu   sync.Mutex
	cron *cron.Cron
}

func New(cfg Config, d Deps) *Service {
	cfg = cfg.withDefaults()
	if d.Clock == nil {
		d.Clock = clock.System(cfg.Location)
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	s := &Service{
		cfg:    cfg,
		store:  d.Store,
		notify: d.Notifier,
		exec:   d.Executor,
		clk:    d.Clock,
		log:    d.Log,
		bus:    d.Bus,
	}
	s.jobs = jobstore.New(s.dispatch,
		jobstore.WithNow(s.clk.Now),
		jobstore.WithAfterFunc(d.AfterFunc),
	)
	return s
}

// Start registers the daily rollover. Timers run from construction on;
// Start only adds the cron entry.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithLocation(s.cfg.Location))
	if _, err := c.AddFunc(s.cfg.ResyncCron, s.rollover); err != nil {
		return fmt.Errorf("resync cron %q: %w", s.cfg.ResyncCron, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("scheduler started",
		logx.String("zone", s.cfg.Location.String()),
		logx.String("reminder_time", s.cfg.ReminderTime.String()),
		logx.String("resync_cron", s.cfg.ResyncCron),
		logx.Int("jobs", s.jobs.Len()),
	)
	return nil
}

// Stop removes the cron entry and disarms every pending job.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	n := s.jobs.Stop()
	s.log.Info("scheduler stopped", logx.Int("dropped_jobs", n))
}

// Jobs lists pending jobs sorted by fire time.
func (s *Service) Jobs() []jobstore.Job { return s.jobs.List() }

func (s *Service) now() time.Time { return s.clk.Now().In(s.cfg.Location) }

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
}

// dispatch runs on the timer goroutine; it only hands the job to the executor.
func (s *Service) dispatch(j jobstore.Job) {
	fireID := uuid.NewString()
	out := Outcome{FireID: fireID, Key: j.Key.String(), At: s.now()}
	eventbus.Emit(s.bus, eventbus.ReminderFired, out)

	err := s.exec.Enqueue(engine.Task{
		ID:      fireID,
		Name:    "reminder." + j.Key.Kind.String(),
		Timeout: s.cfg.TaskTimeout,
		Run: func(ctx context.Context) error {
			return s.run(ctx, fireID, j)
		},
	})
	if err != nil {
		out.Error = err.Error()
		s.log.Warn("reminder dispatch failed", logx.String("key", out.Key), logx.String("fire_id", fireID), logx.Err(err))
		eventbus.Emit(s.bus, eventbus.ReminderFailed, out)
	}
}

func (s *Service) run(ctx context.Context, fireID string, j jobstore.Job) error {
	switch p := j.Payload.(type) {
	case reminder.EventPayload:
		return s.fireEvent(ctx, fireID, p)
	case reminder.BirthdayPayload:
		return s.fireBirthday(ctx, fireID, p)
	case reminder.TestPayload:
		return s.fireTest(ctx, fireID, p)
	default:
		return fmt.Errorf("job %s: unexpected payload %T", j.Key, j.Payload)
	}
}

func (s *Service) rollover() {
	err := s.exec.Enqueue(engine.Task{
		ID:      uuid.NewString(),
		Name:    "birthday.rollover",
		Timeout: s.cfg.TaskTimeout,
		Run: func(ctx context.Context) error {
			rep, err := s.resyncBirthdays(ctx)
			s.log.Info("birthday rollover", logx.Int("scheduled", rep.Birthdays), logx.Int("failed", rep.Failed))
			return err
		},
	})
	if err != nil {
		s.log.Warn("birthday rollover not queued", logx.Err(err))
	}
}
