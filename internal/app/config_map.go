package app

import (
	"orgbot/internal/bot"
	"orgbot/internal/config"
	"orgbot/internal/httpapi"
	"orgbot/internal/notifier"
	"orgbot/internal/scheduler"
	"orgbot/internal/storage"
	"orgbot/internal/task/engine"
	telegram "orgbot/internal/transport/telegram/adapter"
)

// The mappers below expect a config that passed config.Resolve; defaults are
// already filled in.

func storageConfig(c *config.Config, s config.Settings) storage.Config {
	return storage.Config{Path: c.Storage.Path, BusyTimeout: s.BusyTimeout, Location: s.Location}
}

func telegramConfig(c *config.Config, s config.Settings) telegram.Config {
	return telegram.Config{Token: c.Telegram.Token, PollTimeout: s.PollTimeout}
}

func engineConfig(c *config.Config, s config.Settings) engine.Config {
	return engine.Config{
		Workers:        c.Scheduler.Workers,
		QueueSize:      c.Scheduler.QueueSize,
		DefaultTimeout: s.TaskTimeout,
	}
}

func schedulerConfig(c *config.Config, s config.Settings) scheduler.Config {
	return scheduler.Config{
		Location:         s.Location,
		ReminderTime:     s.ReminderTime,
		BirthdayLeadDays: c.Scheduler.BirthdayLeadDays,
		RetryDelay:       s.RetryDelay,
		EventRetries:     intOr(c.Scheduler.EventRetries, config.DefaultEventRetries),
		BirthdayRetries:  intOr(c.Scheduler.BirthdayRetries, 0),
		ResyncCron:       c.Scheduler.ResyncCron,
		TaskTimeout:      s.TaskTimeout,
	}
}

func notifierConfig(c *config.Config, s config.Settings) notifier.Config {
	return notifier.Config{RatePerSec: c.Notifier.RatePerSec, SendTimeout: s.SendTimeout}
}

func botConfig(c *config.Config, s config.Settings) bot.Config {
	return bot.Config{
		Location:     s.Location,
		ReminderTime: s.ReminderTime,
		LeadDays:     c.Scheduler.BirthdayLeadDays,
	}
}

func httpConfig(c *config.Config) httpapi.Config {
	return httpapi.Config{Addr: c.HTTP.Addr, Pprof: c.HTTP.Pprof}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
