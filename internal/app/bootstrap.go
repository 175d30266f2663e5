package app

import (
	"context"
	"errors"
	"fmt"

	"orgbot/internal/config"
	"orgbot/internal/domain"
	"orgbot/internal/storage"
	logx "orgbot/pkg/logx"
)

// SeedAdmin makes sure the configured admin handle exists and is an
// administrator. The seeded record skips member validation: its position is
// not one of the registration choices. created reports whether a new member
// was inserted.
func SeedAdmin(ctx context.Context, st storage.Store, a config.AdminConfig, s config.Settings, log logx.Logger) (m domain.Member, created bool, err error) {
	if a.Handle == 0 {
		return domain.Member{}, false, nil
	}
	m, err = st.GetMemberByHandle(ctx, a.Handle)
	switch {
	case err == nil:
		if m.IsAdmin {
			return m, false, nil
		}
		if err := st.SetAdmin(ctx, m.ID, true); err != nil {
			return m, false, fmt.Errorf("seed admin: %w", err)
		}
		m.IsAdmin = true
		log.Info("existing member promoted to admin", logx.Int64("member_id", m.ID))
		return m, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return domain.Member{}, false, fmt.Errorf("seed admin: %w", err)
	}

	m, err = st.CreateMember(ctx, domain.Member{
		Handle:    a.Handle,
		FullName:  a.FullName,
		Position:  a.Position,
		BirthDate: s.AdminBirth,
		IsAdmin:   true,
	})
	if err != nil {
		return domain.Member{}, false, fmt.Errorf("seed admin: %w", err)
	}
	log.Info("admin seeded", logx.Int64("member_id", m.ID), logx.Int64("handle", m.Handle))
	return m, true, nil
}

// Promote grants admin rights to the member with the given id.
func Promote(ctx context.Context, st storage.Store, id int64) (domain.Member, error) {
	m, err := st.GetMember(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	if err := st.SetAdmin(ctx, id, true); err != nil {
		return domain.Member{}, err
	}
	m.IsAdmin = true
	return m, nil
}

// OpenStore loads cfgPath and opens the store it names, for the one-shot CLI
// commands.
func OpenStore(cfgPath string, log logx.Logger) (storage.Store, *config.Config, config.Settings, error) {
	cfg, err := config.NewConfigManager(cfgPath).Load()
	if err != nil {
		return nil, nil, config.Settings{}, err
	}
	st, err := config.Resolve(cfg)
	if err != nil {
		return nil, nil, config.Settings{}, err
	}
	store, err := storage.Open(storageConfig(cfg, st), log)
	if err != nil {
		return nil, nil, config.Settings{}, err
	}
	return store, cfg, st, nil
}
