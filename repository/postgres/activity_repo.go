package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a Postgres-backed ActivityRepository implementation.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO activity_logs (id, user_id, type, meta, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING created_at
	`

	var meta []byte
	if len(entry.Meta) > 0 {
		meta = []byte(entry.Meta)
	}

	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Type),
		meta,
		nullTime(entry.Timestamp),
	).Scan(&entry.Timestamp)
}

func (r *activityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.ActivityLog, error) {
	const query = `
	SELECT id, user_id, type, meta, created_at
	FROM activity_logs
	WHERE user_id = $1
	  AND ($2 = '' OR type = $2)
	ORDER BY created_at DESC
	LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, string(filter.Type), clampLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var (
			entry   domain.ActivityLog
			kind    string
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &kind, &payload, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Type = domain.ActivityType(kind)
		if len(payload) > 0 {
			entry.Meta = append([]byte(nil), payload...)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
