package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"orgbot/internal/eventbus"
	logx "orgbot/pkg/logx"
)

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue chan queuedTask) {
	for {
		// A closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case qt := <-queue:
			s.inFlight.Add(1)
			s.execOne(ctx, qt)
			s.inFlight.Add(-1)
		}
	}
}

func (s *Service) execOne(ctx context.Context, qt queuedTask) {
	start := time.Now()
	queueDelay := max(start.Sub(qt.enqueuedAt), 0)
	t := qt.task

	s.log.Debug("task.started", logx.String("task", t.Name), logx.String("id", t.ID), logx.Duration("queue_delay", queueDelay))
	eventbus.Emit(s.bus, eventbus.TaskStarted, TaskEvent{ID: t.ID, Name: t.Name, Started: start, QueueDelay: queueDelay})

	runCtx, cancel := context.WithTimeout(ctx, qt.timeout)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				s.log.Error("task.panic", logx.String("task", t.Name), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		return t.Run(runCtx)
	}()
	cancel()

	dur := time.Since(start)
	item := HistoryItem{ID: t.ID, Name: t.Name, Started: start, QueueDelay: queueDelay, Duration: dur}
	if err != nil {
		item.Error = err.Error()
		s.failed.Add(1)
		s.log.Warn("task.failed", logx.String("task", t.Name), logx.String("id", t.ID), logx.Err(err), logx.Duration("dur", dur))
		eventbus.Emit(s.bus, eventbus.TaskFailed, TaskEvent{ID: t.ID, Name: t.Name, Started: start, QueueDelay: queueDelay, Duration: dur, Error: item.Error})
	} else {
		s.log.Debug("task.completed", logx.String("task", t.Name), logx.String("id", t.ID), logx.Duration("dur", dur))
		eventbus.Emit(s.bus, eventbus.TaskFinished, TaskEvent{ID: t.ID, Name: t.Name, Started: start, QueueDelay: queueDelay, Duration: dur})
	}
	s.record(item)
}
