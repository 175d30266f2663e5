package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgbot/internal/eventbus"
	logx "orgbot/pkg/logx"
)

func startEngine(t *testing.T, cfg Config, bus eventbus.Bus) *Service {
	t.Helper()
	s := New(cfg, logx.Nop(), bus)
	s.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func TestEnqueueRuns(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1}, nil)
	done := make(chan struct{})
	err := s.Enqueue(Task{Name: "ok", Run: func(ctx context.Context) error {
		close(done)
		return nil
	}})
	if err != nil {
		t.Fatalf("Enqueue err = %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not run")
	}
}

func TestPanicIsRecovered(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()

	s := startEngine(t, Config{Workers: 1}, bus)
	if err := s.Enqueue(Task{Name: "boom", Run: func(ctx context.Context) error { panic("x") }}); err != nil {
		t.Fatalf("Enqueue err = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type != eventbus.TaskFailed {
				continue
			}
			te := e.Data.(TaskEvent)
			if te.Name != "boom" || te.Error != "panic: x" {
				t.Fatalf("TaskEvent = %+v", te)
			}
			// The worker survives and takes the next task.
			done := make(chan struct{})
			_ = s.Enqueue(Task{Name: "next", Run: func(ctx context.Context) error { close(done); return nil }})
			select {
			case <-done:
				return
			case <-time.After(2 * time.Second):
				t.Fatalf("worker did not survive panic")
			}
		case <-deadline:
			t.Fatalf("no task.failed event")
		}
	}
}

func TestTimeoutApplied(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1}, nil)
	got := make(chan error, 1)
	_ = s.Enqueue(Task{Name: "slow", Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}})
	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("ctx err = %v, want deadline", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout not applied")
	}
}

func TestQueueFull(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1, QueueSize: 1}, nil)
	block := make(chan struct{})
	started := make(chan struct{})
	defer close(block)

	_ = s.Enqueue(Task{Name: "hold", Run: func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}})
	<-started
	if err := s.Enqueue(Task{Name: "queued", Run: func(ctx context.Context) error { return nil }}); err != nil {
		t.Fatalf("second Enqueue err = %v", err)
	}
	if err := s.Enqueue(Task{Name: "dropped", Run: func(ctx context.Context) error { return nil }}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Enqueue err = %v, want ErrQueueFull", err)
	}
	if got := s.Snapshot().Dropped; got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop(), nil)
	if err := s.Enqueue(Task{Name: "x", Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrStopped) {
		t.Fatalf("not started: err = %v, want ErrStopped", err)
	}
	if err := s.Enqueue(Task{Name: "x"}); !errors.Is(err, ErrNoRun) {
		t.Fatalf("nil Run: err = %v, want ErrNoRun", err)
	}
	if err := s.Enqueue(Task{Name: " ", Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrNoName) {
		t.Fatalf("blank name: err = %v, want ErrNoName", err)
	}
}
