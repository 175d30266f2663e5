// Package storage persists members, events, reminders and recipient lists.
//
// The only backend is SQLite (modernc.org/sqlite, no cgo). The schema lives in
// sql/ and is applied at open time through sqlmigrator.
//
// Calendar dates are stored as YYYY-MM-DD text and read back as midnight in
// the organization zone, so date comparisons in SQL are plain string compares.
package storage
