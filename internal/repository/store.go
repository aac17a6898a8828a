package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/visitor-analytics/internal/config"
)

type database interface {
	Migrate(ctx context.Context, resetActions bool) error
	Close() error
}

// Store хранилище событий, которым владеет процесс и которое передаётся
// в сервисы явно
type Store struct {
	Visits  VisitRepository
	Actions ActionRepository
	db      database
}

// OpenStore подключается к хранилищу по DB_DRIVER и применяет схему
func OpenStore(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	var store *Store

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		store = &Store{
			Visits:  NewVisitRepository(db),
			Actions: NewActionRepository(db),
			db:      db,
		}
	case config.DriverSQLite:
		db, err := NewSQLiteDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		store = &Store{
			Visits:  NewSQLiteVisitRepository(db),
			Actions: NewSQLiteActionRepository(db),
			db:      db,
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := store.db.Migrate(ctx, cfg.ResetActionsOnStartup); err != nil {
		store.db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
