package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"orgbot/internal/domain"
	logx "orgbot/pkg/logx"
)

const memberColumns = `m.id, m.handle, m.full_name, m.position, m.birth_date, m.is_admin, m.created_at`

const eventSelect = `SELECT e.id, e.title, e.description, e.event_date, e.creator_id, m.full_name,
		e.created_at, COALESCE(r.interval_days, 0)
	FROM events e
	JOIN members m ON m.id = e.creator_id
	LEFT JOIN reminders r ON r.event_id = e.id`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
	loc *time.Location
}

func openSQLite(cfg Config, log logx.Logger) (*sqliteStore, error) {
	path := strings.TrimSpace(cfg.Path)
	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite has a single writer, and an in-memory database
	// only exists inside the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	log.Debug("sqlite opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log, loc: loc}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- members ---

func (s *sqliteStore) CreateMember(ctx context.Context, m domain.Member) (domain.Member, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().In(s.loc)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members(handle, full_name, position, birth_date, is_admin, created_at)
		 VALUES(?,?,?,?,?,?)`,
		m.Handle, strings.TrimSpace(m.FullName), strings.TrimSpace(m.Position),
		s.formatDate(m.BirthDate), boolInt(m.IsAdmin), m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUnique(err) {
			return domain.Member{}, fmt.Errorf("create member %d: %w", m.Handle, ErrConflict)
		}
		return domain.Member{}, fmt.Errorf("create member %d: %w", m.Handle, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Member{}, err
	}
	return s.GetMember(ctx, id)
}

func (s *sqliteStore) GetMember(ctx context.Context, id int64) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.id = ?`, id)
	m, err := s.scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return m, nil
}

func (s *sqliteStore) GetMemberByHandle(ctx context.Context, handle int64) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.handle = ?`, handle)
	m, err := s.scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("get member by handle %d: %w", handle, err)
	}
	return m, nil
}

func (s *sqliteStore) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members m ORDER BY m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := s.scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE members SET is_admin = ? WHERE id = ?`, boolInt(admin), id)
	if err != nil {
		return err
	}
	return affectedOne(res, fmt.Sprintf("member %d", id))
}

func (s *sqliteStore) DeleteMember(ctx context.Context, id int64) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := collectIDs(tx.QueryContext(ctx, `SELECT id FROM events WHERE creator_id = ? ORDER BY id`, id))
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if err := affectedOne(res, fmt.Sprintf("member %d", id)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- events ---

func (s *sqliteStore) CreateEvent(ctx context.Context, in domain.EventInput) (domain.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Event{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO events(title, description, event_date, creator_id, created_at) VALUES(?,?,?,?,?)`,
		strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), s.formatDate(in.Date),
		in.CreatorID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.Event{}, mapFK(fmt.Sprintf("create event (creator %d)", in.CreatorID), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Event{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reminders(event_id, interval_days) VALUES(?,?)`, id, in.IntervalDays,
	); err != nil {
		return domain.Event{}, fmt.Errorf("create reminder for event %d: %w", id, err)
	}
	for _, mid := range in.RecipientIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_recipients(event_id, member_id) VALUES(?,?)`, id, mid,
		); err != nil {
			return domain.Event{}, mapFK(fmt.Sprintf("add recipient %d", mid), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Event{}, err
	}
	return s.GetEvent(ctx, id)
}

func (s *sqliteStore) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	evs, err := s.queryEvents(ctx, eventSelect+` WHERE e.id = ?`, id)
	if err != nil {
		return domain.Event{}, err
	}
	if len(evs) == 0 {
		return domain.Event{}, fmt.Errorf("get event %d: %w", id, ErrNotFound)
	}
	return evs[0], nil
}

func (s *sqliteStore) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.queryEvents(ctx, eventSelect+` ORDER BY e.event_date, e.id`)
}

func (s *sqliteStore) ListEventsByCreator(ctx context.Context, memberID int64) ([]domain.Event, error) {
	return s.queryEvents(ctx, eventSelect+` WHERE e.creator_id = ? ORDER BY e.event_date, e.id`, memberID)
}

func (s *sqliteStore) ListUpcomingEvents(ctx context.Context, from time.Time) ([]domain.Event, error) {
	return s.queryEvents(ctx, eventSelect+` WHERE e.event_date >= ? ORDER BY e.event_date, e.id`, s.formatDate(from))
}

func (s *sqliteStore) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res, fmt.Sprintf("event %d", id))
}

// queryEvents closes the event rows before loading recipients; with a single
// connection a nested query would block forever.
func (s *sqliteStore) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []domain.Event
	for rows.Next() {
		var (
			e             domain.Event
			date, created string
			interval      int
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &date, &e.CreatorID, &e.CreatorName, &created, &interval); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if e.Date, err = s.parseDate(date); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("event %d: %w", e.ID, err)
		}
		e.CreatedAt = s.parseStamp(created)
		e.Reminder = domain.Reminder{EventID: e.ID, IntervalDays: interval}
		out = append(out, e)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range out {
		rec, err := s.recipients(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Recipients = rec
	}
	return out, nil
}

func (s *sqliteStore) recipients(ctx context.Context, eventID int64) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM event_recipients er
		 JOIN members m ON m.id = er.member_id
		 WHERE er.event_id = ? ORDER BY m.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := s.scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) scanMember(row scanner) (domain.Member, error) {
	var (
		m              domain.Member
		birth, created string
		admin          int
	)
	if err := row.Scan(&m.ID, &m.Handle, &m.FullName, &m.Position, &birth, &admin, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, ErrNotFound
		}
		return domain.Member{}, err
	}
	bd, err := s.parseDate(birth)
	if err != nil {
		return domain.Member{}, fmt.Errorf("member %d: %w", m.ID, err)
	}
	m.BirthDate = bd
	m.IsAdmin = admin != 0
	m.CreatedAt = s.parseStamp(created)
	return m, nil
}

func (s *sqliteStore) formatDate(t time.Time) string {
	return domain.DateOf(t, s.loc).Format(domain.StoreDateLayout)
}

func (s *sqliteStore) parseDate(v string) (time.Time, error) {
	return time.ParseInLocation(domain.StoreDateLayout, v, s.loc)
}

func (s *sqliteStore) parseStamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t.In(s.loc)
}

func collectIDs(rows *sql.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func affectedOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func mapFK(what string, err error) error {
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
