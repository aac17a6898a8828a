package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
)

// ActionRepository доступ к таблице actions
type ActionRepository interface {
	Create(ctx context.Context, action *models.Action) error
	RankByElement(ctx context.Context) ([]models.ElementRank, error)
}

type actionRepository struct {
	db *PostgresDB
	q  queries
}

func NewActionRepository(db *PostgresDB) ActionRepository {
	return &actionRepository{db: db, q: queries{d: postgresDialect}}
}

func (r *actionRepository) Create(ctx context.Context, action *models.Action) error {
	query := `
		INSERT INTO actions (session_id, action, element, element_id, element_class, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		action.SessionID,
		action.Action,
		action.Element,
		action.ElementID,
		action.ElementClass,
		action.Timestamp,
	).Scan(&action.ID)

	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}

	return nil
}

func (r *actionRepository) RankByElement(ctx context.Context) ([]models.ElementRank, error) {
	rows, err := r.db.Pool.Query(ctx, r.q.rankByElement())
	if err != nil {
		return nil, fmt.Errorf("failed to rank actions: %w", err)
	}
	defer rows.Close()

	ranks := []models.ElementRank{}
	for rows.Next() {
		var rank models.ElementRank
		if err := rows.Scan(&rank.Element, &rank.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan action rank: %w", err)
		}
		ranks = append(ranks, rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action ranks: %w", err)
	}

	return ranks, nil
}

type sqliteActionRepository struct {
	db *SQLiteDB
	q  queries
}

func NewSQLiteActionRepository(db *SQLiteDB) ActionRepository {
	return &sqliteActionRepository{db: db, q: queries{d: sqliteDialect}}
}

func (r *sqliteActionRepository) Create(ctx context.Context, action *models.Action) error {
	if err := r.db.DB.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

func (r *sqliteActionRepository) RankByElement(ctx context.Context) ([]models.ElementRank, error) {
	ranks := []models.ElementRank{}
	if err := r.db.DB.WithContext(ctx).Raw(r.q.rankByElement()).Scan(&ranks).Error; err != nil {
		return nil, fmt.Errorf("failed to rank actions: %w", err)
	}
	return ranks, nil
}
