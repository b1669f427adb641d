package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a SQLite-backed ActivityRepository implementation.
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, user_id, type, meta, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Type), string(entry.Meta), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.ActivityLog, error) {
	query := `SELECT id, user_id, type, meta, created_at FROM activity_logs WHERE user_id = ?`
	args := []any{filter.UserID}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, clampLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var (
			entry      domain.ActivityLog
			kind, meta string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &kind, &meta, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Type = domain.ActivityType(kind)
		entry.Timestamp = entry.Timestamp.UTC()
		if meta != "" {
			entry.Meta = []byte(meta)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
