package config

// Config is the on-disk configuration. Durations are Go duration strings
// ("10s", "1m"); empty values fall back to the defaults in ApplyDefaults.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Admin     AdminConfig     `json:"admin"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notifier  NotifierConfig  `json:"notifier"`
	Logging   LoggingConfig   `json:"logging"`
	HTTP      HTTPConfig      `json:"http"`
}

type TelegramConfig struct {
	// Token is usually supplied through ORGBOT_BOT_TOKEN instead of the file.
	Token       string `json:"token,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"`
}

// AdminConfig describes the member seeded as administrator on startup.
// Handle 0 disables seeding.
type AdminConfig struct {
	Handle    int64  `json:"handle,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Position  string `json:"position,omitempty"`
	BirthDate string `json:"birth_date,omitempty"` // yyyy-mm-dd
}

type StorageConfig struct {
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// SchedulerConfig controls reminder timing, retries and the executor.
//
// Timezone (IANA name) wins over UTCOffset when both are set.
type SchedulerConfig struct {
	ReminderTime     string `json:"reminder_time,omitempty"`
	BirthdayLeadDays int    `json:"birthday_lead_days,omitempty"`
	UTCOffset        string `json:"utc_offset,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	RetryDelay       string `json:"retry_delay,omitempty"`

	// Retry counts are pointers so an explicit 0 survives defaulting.
	EventRetries    *int `json:"event_retries,omitempty"`
	BirthdayRetries *int `json:"birthday_retries,omitempty"`

	ResyncCron  string `json:"resync_cron,omitempty"`
	Workers     int    `json:"workers,omitempty"`
	QueueSize   int    `json:"queue_size,omitempty"`
	TaskTimeout string `json:"task_timeout,omitempty"`
}

type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// HTTPConfig controls the inspection server. Addr "-" disables it.
type HTTPConfig struct {
	Addr string `json:"addr,omitempty"`
	// Pprof mounts net/http/pprof under /debug/pprof/.
	Pprof bool `json:"pprof,omitempty"`
}

func (h HTTPConfig) Enabled() bool { return h.Addr != "" && h.Addr != "-" }

const (
	DefaultPollTimeout   = "10s"
	DefaultAdminName     = "Администратор"
	DefaultAdminPosition = "Администратор"
	DefaultAdminBirth    = "1980-01-01"
	DefaultStoragePath   = "./data/orgbot.db"
	DefaultBusyTimeout   = "5s"
	DefaultReminderTime  = "13:00"
	DefaultLeadDays      = 7
	DefaultUTCOffset     = "+03:00"
	DefaultRetryDelay    = "1m"
	DefaultEventRetries  = 1
	DefaultResyncCron    = "5 0 * * *"
	DefaultWorkers       = 2
	DefaultQueueSize     = 256
	DefaultTaskTimeout   = "2m"
	DefaultRatePerSec    = 20
	DefaultSendTimeout   = "10s"
	DefaultLogLevel      = "info"
	DefaultHTTPAddr      = "127.0.0.1:8081"
)

// ApplyDefaults fills every unset field in place.
func ApplyDefaults(c *Config) {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	def(&c.Telegram.PollTimeout, DefaultPollTimeout)

	def(&c.Admin.FullName, DefaultAdminName)
	def(&c.Admin.Position, DefaultAdminPosition)
	def(&c.Admin.BirthDate, DefaultAdminBirth)

	def(&c.Storage.Path, DefaultStoragePath)
	def(&c.Storage.BusyTimeout, DefaultBusyTimeout)

	s := &c.Scheduler
	def(&s.ReminderTime, DefaultReminderTime)
	if s.BirthdayLeadDays <= 0 {
		s.BirthdayLeadDays = DefaultLeadDays
	}
	if s.Timezone == "" {
		def(&s.UTCOffset, DefaultUTCOffset)
	}
	def(&s.RetryDelay, DefaultRetryDelay)
	if s.EventRetries == nil {
		n := DefaultEventRetries
		s.EventRetries = &n
	}
	if s.BirthdayRetries == nil {
		n := 0
		s.BirthdayRetries = &n
	}
	def(&s.ResyncCron, DefaultResyncCron)
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.QueueSize <= 0 {
		s.QueueSize = DefaultQueueSize
	}
	def(&s.TaskTimeout, DefaultTaskTimeout)

	if c.Notifier.RatePerSec <= 0 {
		c.Notifier.RatePerSec = DefaultRatePerSec
	}
	def(&c.Notifier.SendTimeout, DefaultSendTimeout)

	def(&c.Logging.Level, DefaultLogLevel)
	if c.Logging.Console == nil {
		on := true
		c.Logging.Console = &on
	}

	def(&c.HTTP.Addr, DefaultHTTPAddr)
}
