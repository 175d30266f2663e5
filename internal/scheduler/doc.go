// Package scheduler turns events and member birthdays into timed reminder
// jobs and delivers them when they fire.
//
// Jobs live only in memory (see jobstore). Resync rebuilds them from the
// store at startup and a daily cron entry rolls birthday reminders over to
// the next year. Fire handlers re-read the entity, so a deleted event or
// member turns a pending job into a no-op.
package scheduler
