package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDB встроенное хранилище событий (по умолчанию tracking.db)
type SQLiteDB struct {
	DB *gorm.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	if path == ":memory:" {
		// каждое соединение к :memory: открывает отдельную базу
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteDB{DB: db}, nil
}

// Migrate создаёт таблицы и индексы. Таблица actions пересоздаётся,
// если resetActions = true.
func (db *SQLiteDB) Migrate(ctx context.Context, resetActions bool) error {
	tx := db.DB.WithContext(ctx)

	if err := tx.AutoMigrate(&models.Visit{}); err != nil {
		return fmt.Errorf("failed to migrate visits table: %w", err)
	}
	if resetActions {
		if err := tx.Migrator().DropTable(&models.Action{}); err != nil {
			return fmt.Errorf("failed to drop actions table: %w", err)
		}
	}
	if err := tx.AutoMigrate(&models.Action{}); err != nil {
		return fmt.Errorf("failed to migrate actions table: %w", err)
	}
	return nil
}

func (db *SQLiteDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
