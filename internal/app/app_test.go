package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgbot/internal/config"
	"orgbot/internal/domain"
	"orgbot/internal/storage"
	logx "orgbot/pkg/logx"
)

func testStore(t *testing.T) (storage.Store, config.Settings) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	set, err := config.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve err = %v", err)
	}
	st, err := storage.Open(storage.Config{Path: ":memory:", Location: set.Location}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, set
}

func TestSeedAdminCreatesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, set := testStore(t)
	adm := config.AdminConfig{Handle: 4242, FullName: "Администратор", Position: "Администратор"}

	m, created, err := SeedAdmin(ctx, st, adm, set, logx.Nop())
	if err != nil || !created {
		t.Fatalf("SeedAdmin = %v, %v", created, err)
	}
	if !m.IsAdmin || m.Position != "Администратор" || domain.FormatDate(m.BirthDate) != "01.01.1980" {
		t.Fatalf("admin = %+v", m)
	}

	again, created, err := SeedAdmin(ctx, st, adm, set, logx.Nop())
	if err != nil || created || again.ID != m.ID {
		t.Fatalf("second SeedAdmin = %+v, %v, %v", again, created, err)
	}
	ms, _ := st.ListMembers(ctx)
	if len(ms) != 1 {
		t.Fatalf("members = %d, want 1", len(ms))
	}
}

func TestSeedAdminPromotesExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, set := testStore(t)

	m, err := st.CreateMember(ctx, domain.Member{
		Handle: 7, FullName: "Иванов", Position: "доцент",
		BirthDate: time.Date(1990, 1, 10, 0, 0, 0, 0, set.Location),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, created, err := SeedAdmin(ctx, st, config.AdminConfig{Handle: 7}, set, logx.Nop())
	if err != nil || created || !got.IsAdmin || got.ID != m.ID {
		t.Fatalf("SeedAdmin = %+v, %v, %v", got, created, err)
	}
}

func TestSeedAdminDisabled(t *testing.T) {
	t.Parallel()
	st, set := testStore(t)
	if _, created, err := SeedAdmin(context.Background(), st, config.AdminConfig{}, set, logx.Nop()); err != nil || created {
		t.Fatalf("SeedAdmin without handle = %v, %v", created, err)
	}
}

func TestPromote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, set := testStore(t)

	m, err := st.CreateMember(ctx, domain.Member{
		Handle: 9, FullName: "Петров", Position: "ассистент",
		BirthDate: time.Date(1995, 5, 5, 0, 0, 0, 0, set.Location),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := Promote(ctx, st, m.ID)
	if err != nil || !got.IsAdmin {
		t.Fatalf("Promote = %+v, %v", got, err)
	}
	if _, err := Promote(ctx, st, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Promote unknown err = %v, want ErrNotFound", err)
	}
}

func TestConfigMappers(t *testing.T) {
	t.Parallel()

	zero := 0
	cfg := &config.Config{}
	cfg.Scheduler.BirthdayRetries = &zero
	config.ApplyDefaults(cfg)
	set, err := config.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve err = %v", err)
	}

	sc := schedulerConfig(cfg, set)
	if sc.EventRetries != 1 || sc.BirthdayRetries != 0 || sc.ReminderTime.String() != "13:00" {
		t.Fatalf("scheduler config = %+v", sc)
	}
	if _, off := time.Date(2025, 1, 1, 0, 0, 0, 0, sc.Location).Zone(); off != 3*3600 {
		t.Fatalf("zone offset = %d", off)
	}
	if ec := engineConfig(cfg, set); ec.Workers != 2 || ec.DefaultTimeout != 2*time.Minute {
		t.Fatalf("engine config = %+v", ec)
	}
	if bc := botConfig(cfg, set); bc.LeadDays != 7 {
		t.Fatalf("bot config = %+v", bc)
	}
	if hc := httpConfig(cfg); hc.Addr != "127.0.0.1:8081" {
		t.Fatalf("http config = %+v", hc)
	}
}
