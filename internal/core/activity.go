package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityService reads the append-only activity log.
type ActivityService interface {
	ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
}

type activityService struct {
	pool *pgxpool.Pool
}

// NewActivityService constructs an ActivityService.
func NewActivityService(pool *pgxpool.Pool) ActivityService {
	return &activityService{pool: pool}
}

func (s *activityService) ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, COALESCE(detail, ''), created_at
		FROM activity_log ORDER BY id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
