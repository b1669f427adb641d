package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository instantiates a SQLite-backed user repository.
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, status, metadata,
			baseline_productivity_score, baseline_distraction_score,
			current_energy_level, current_mood, created_at, updated_at
		FROM users WHERE id = ?`, id)

	var user domain.User
	var metadata, mood string
	if err := row.Scan(
		&user.ID, &user.Email, &user.Role, &user.Status, &metadata,
		&user.BaselineProductivityScore, &user.BaselineDistractionScore,
		&user.CurrentEnergyLevel, &mood, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.CurrentMood = domain.Mood(mood)
	user.Metadata = decodeMap(metadata)
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, role, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET email = excluded.email,
			role = excluded.role,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		user.ID, user.Email, user.Role, user.Status, encodeMap(user.Metadata), user.CreatedAt.UTC(), user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateBaseline(ctx context.Context, id string, baseline domain.Baseline) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET baseline_productivity_score = ?, baseline_distraction_score = ?, updated_at = ?
		WHERE id = ?`,
		baseline.Productivity, baseline.Distraction, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	return expectOne(res, domain.ErrUserNotFound)
}

func (r *userRepository) UpdateCondition(ctx context.Context, id string, energy int, mood domain.Mood) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET current_energy_level = ?, current_mood = ?, updated_at = ?
		WHERE id = ?`,
		energy, string(mood), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update condition: %w", err)
	}
	return expectOne(res, domain.ErrUserNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
