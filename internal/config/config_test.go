package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var c Config
	ApplyDefaults(&c)

	if c.Scheduler.ReminderTime != "13:00" || c.Scheduler.UTCOffset != "+03:00" {
		t.Fatalf("scheduler = %+v", c.Scheduler)
	}
	if *c.Scheduler.EventRetries != 1 || *c.Scheduler.BirthdayRetries != 0 {
		t.Fatalf("retries = %d/%d, want 1/0", *c.Scheduler.EventRetries, *c.Scheduler.BirthdayRetries)
	}
	if c.Storage.Path != DefaultStoragePath || c.HTTP.Addr != DefaultHTTPAddr {
		t.Fatalf("storage/http = %q/%q", c.Storage.Path, c.HTTP.Addr)
	}
	if !*c.Logging.Console || c.Logging.Level != "info" {
		t.Fatalf("logging = %+v", c.Logging)
	}
	if c.Admin.FullName != "Администратор" {
		t.Fatalf("admin name = %q", c.Admin.FullName)
	}

	// idempotent
	before := c
	ApplyDefaults(&c)
	if c.HTTP != before.HTTP || c.Storage != before.Storage {
		t.Fatalf("second ApplyDefaults changed config")
	}
}

func TestTimezoneSkipsOffsetDefault(t *testing.T) {
	t.Parallel()

	c := Config{Scheduler: SchedulerConfig{Timezone: "Europe/Moscow"}}
	ApplyDefaults(&c)
	if c.Scheduler.UTCOffset != "" {
		t.Fatalf("utc_offset = %q, want empty when timezone is set", c.Scheduler.UTCOffset)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "orgbot.yaml", `
telegram:
  poll_timeout: 30s
scheduler:
  reminder_time: "09:30"
  event_retries: 0
  birthday_retries: 2
http:
  addr: "-"
`)
	cfg, err := NewConfigManager(p).Parse()
	if err != nil {
		t.Fatalf("Parse err = %v", err)
	}
	if cfg.Telegram.PollTimeout != "30s" || cfg.Scheduler.ReminderTime != "09:30" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if *cfg.Scheduler.EventRetries != 0 || *cfg.Scheduler.BirthdayRetries != 2 {
		t.Fatalf("retries = %d/%d, want 0/2", *cfg.Scheduler.EventRetries, *cfg.Scheduler.BirthdayRetries)
	}
	if cfg.HTTP.Enabled() {
		t.Fatalf("http enabled with addr %q", cfg.HTTP.Addr)
	}

	st, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve err = %v", err)
	}
	if st.ReminderTime.Hour != 9 || st.ReminderTime.Minute != 30 || st.PollTimeout != 30*time.Second {
		t.Fatalf("settings = %+v", st)
	}
	if _, off := time.Date(2025, 1, 1, 0, 0, 0, 0, st.Location).Zone(); off != 3*3600 {
		t.Fatalf("zone offset = %d, want %d", off, 3*3600)
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown json field", "c.json", `{"telegram":{"timeout":"1s"}}`, "unknown field"},
		{"unknown yaml field", "c.yml", "storage:\n  driver: sqlite\n", "unknown field"},
		{"trailing data", "c.json", `{}{}`, "trailing data"},
		{"bad duration", "c.json", `{"scheduler":{"retry_delay":"soon"}}`, "scheduler.retry_delay"},
		{"bad cron", "c.json", `{"scheduler":{"resync_cron":"every day"}}`, "resync_cron"},
		{"bad reminder time", "c.json", `{"scheduler":{"reminder_time":"25:00"}}`, "reminder_time"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := writeFile(t, tt.file, tt.body)
			_, err := NewConfigManager(p).Parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Parse err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestResolveJoinsErrors(t *testing.T) {
	t.Parallel()

	c := Config{
		Storage:  StorageConfig{BusyTimeout: "-1s"},
		Notifier: NotifierConfig{SendTimeout: "x"},
	}
	_, err := Resolve(&c)
	if err == nil {
		t.Fatalf("Resolve err = nil")
	}
	for _, want := range []string{"storage.busy_timeout", "notifier.send_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("err = %v, missing %q", err, want)
		}
	}
}

func TestApplyEnvPrecedence(t *testing.T) {
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("ORGBOT_BOT_TOKEN", "new-token")
	t.Setenv("ADMIN_TELEGRAM_ID", "42")
	t.Setenv("ADMIN_FULL_NAME", "Петров Пётр")
	t.Setenv("ORGBOT_DB_PATH", "/var/lib/orgbot/db.sqlite")

	c := Config{Telegram: TelegramConfig{Token: "file-token"}}
	if err := ApplyEnv(&c); err != nil {
		t.Fatalf("ApplyEnv err = %v", err)
	}
	if c.Telegram.Token != "new-token" {
		t.Fatalf("token = %q, want new-token", c.Telegram.Token)
	}
	if c.Admin.Handle != 42 || c.Admin.FullName != "Петров Пётр" {
		t.Fatalf("admin = %+v", c.Admin)
	}
	if c.Storage.Path != "/var/lib/orgbot/db.sqlite" {
		t.Fatalf("storage.path = %q", c.Storage.Path)
	}
}

func TestApplyEnvLegacyOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "legacy-token")

	var c Config
	if err := ApplyEnv(&c); err != nil {
		t.Fatalf("ApplyEnv err = %v", err)
	}
	if c.Telegram.Token != "legacy-token" {
		t.Fatalf("token = %q, want legacy-token", c.Telegram.Token)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv err = %v", err)
	}
}

func TestReloadPublishesOnlyChanges(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "c.json", `{"logging":{"level":"info"}}`)
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load err = %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	if changed, err := m.Reload(); err != nil || changed {
		t.Fatalf("Reload unchanged = %v, %v", changed, err)
	}

	if err := os.WriteFile(p, []byte(`{"logging":{"level":"debug"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if changed, err := m.Reload(); err != nil || !changed {
		t.Fatalf("Reload changed = %v, %v", changed, err)
	}
	got := <-ch
	if got.Logging.Level != "debug" || m.Get().Logging.Level != "debug" {
		t.Fatalf("level = %q", got.Logging.Level)
	}

	if err := os.WriteFile(p, []byte(`{"logging":{"lvl":"x"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reload(); err == nil {
		t.Fatalf("Reload accepted invalid file")
	}
	if m.Get().Logging.Level != "debug" {
		t.Fatalf("invalid reload replaced committed config")
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	a, b := Config{}, Config{}
	ApplyDefaults(&a)
	ApplyDefaults(&b)
	b.Logging.Level = "debug"
	b.Telegram.Token = "secret"

	changed, attrs := SummarizeChange(&a, &b)
	if strings.Join(changed, ",") != "logging,telegram" {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatalf("attrs empty")
	}
	if r := RestartRequired(changed); len(r) != 1 || r[0] != "telegram" {
		t.Fatalf("RestartRequired = %v", r)
	}
}
