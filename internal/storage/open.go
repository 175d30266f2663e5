package storage

import (
	"errors"
	"strings"

	logx "orgbot/pkg/logx"
)

// Open opens the SQLite store at cfg.Path and applies pending migrations.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage path is required")
	}
	return openSQLite(cfg, log)
}
