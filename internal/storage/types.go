package storage

import (
	"context"
	"time"

	"orgbot/internal/domain"
)

var (
	ErrNotFound = domain.ErrNotFound
	ErrConflict = domain.ErrConflict
)

type Config struct {
	// Path is a file path or ":memory:".
	Path        string
	BusyTimeout time.Duration
	// Location is the organization zone dates are read in. Defaults to UTC.
	Location *time.Location
}

// Store is the persistence API used by the bot and the scheduler.
type Store interface {
	CreateMember(ctx context.Context, m domain.Member) (domain.Member, error)
	GetMember(ctx context.Context, id int64) (domain.Member, error)
	GetMemberByHandle(ctx context.Context, handle int64) (domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	SetAdmin(ctx context.Context, id int64, admin bool) error
	// DeleteMember removes the member and every event they created. It
	// returns the ids of the removed events.
	DeleteMember(ctx context.Context, id int64) ([]int64, error)

	// CreateEvent stores the event, its reminder and recipients atomically.
	CreateEvent(ctx context.Context, in domain.EventInput) (domain.Event, error)
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListEventsByCreator(ctx context.Context, memberID int64) ([]domain.Event, error)
	// ListUpcomingEvents returns events dated on or after from.
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]domain.Event, error)
	DeleteEvent(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}
