package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Trainer, error)
	CreateSession(ctx context.Context, id string, trainerID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, trainerID int64, passwordHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a trainer by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Trainer, error) {
	const query = `
		SELECT id, email, name, password_hash, is_active, created_at, updated_at
		FROM trainers
		WHERE email = $1`

	var t Trainer
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, trainerID int64, expiresAt time.Time, ip, ua string) error {
	const query = `
		INSERT INTO trainer_sessions (id, trainer_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, NOW(), $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		id,
		trainerID,
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""},
	)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM trainer_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions purges session records past their expiry.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trainer_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdatePassword replaces the stored password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, trainerID int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trainers SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		trainerID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
