package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настройка пула соединений
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

const postgresVisitsSchema = `
CREATE TABLE IF NOT EXISTS visits (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	page       TEXT NOT NULL,
	user_ip    TEXT,
	country    TEXT,
	city       TEXT,
	isp        TEXT,
	user_agent TEXT,
	device     TEXT,
	referrer   TEXT,
	duration   BIGINT NOT NULL DEFAULT 0,
	load_time  BIGINT,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_visits_session_id ON visits(session_id);
CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
`

const postgresActionsSchema = `
CREATE TABLE IF NOT EXISTS actions (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL,
	action        TEXT NOT NULL,
	element       TEXT NOT NULL,
	element_id    TEXT,
	element_class TEXT,
	timestamp     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate создаёт таблицы и индексы. Таблица actions пересоздаётся,
// если resetActions = true.
func (db *PostgresDB) Migrate(ctx context.Context, resetActions bool) error {
	if _, err := db.Pool.Exec(ctx, postgresVisitsSchema); err != nil {
		return fmt.Errorf("failed to create visits table: %w", err)
	}
	if resetActions {
		if _, err := db.Pool.Exec(ctx, `DROP TABLE IF EXISTS actions`); err != nil {
			return fmt.Errorf("failed to drop actions table: %w", err)
		}
	}
	if _, err := db.Pool.Exec(ctx, postgresActionsSchema); err != nil {
		return fmt.Errorf("failed to create actions table: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() error {
	db.Pool.Close()
	return nil
}
