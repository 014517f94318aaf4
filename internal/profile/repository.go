package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for trainer profiles and
// settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile fetches a trainer's profile. Trainers without a profile row get
// the base account fields with empty extras.
func (r *Repository) GetProfile(ctx context.Context, trainerID int64) (*Profile, error) {
	const query = `
		SELECT t.id, t.name, t.email,
			COALESCE(p.bio, ''), COALESCE(p.phone, ''), COALESCE(p.specialty, ''), COALESCE(p.image_url, ''),
			COALESCE(p.updated_at, t.updated_at)
		FROM trainers t
		LEFT JOIN trainer_profiles p ON p.trainer_id = t.id
		WHERE t.id = $1`

	var profile Profile
	err := r.pool.QueryRow(ctx, query, trainerID).Scan(
		&profile.TrainerID, &profile.Name, &profile.Email,
		&profile.Bio, &profile.Phone, &profile.Specialty, &profile.ImageURL,
		&profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile stores the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, trainerID int64, input ProfileInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trainers SET name = $2, updated_at = NOW() WHERE id = $1`, trainerID, input.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}

	const upsert = `
		INSERT INTO trainer_profiles (trainer_id, bio, phone, specialty, image_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (trainer_id) DO UPDATE
		SET bio = EXCLUDED.bio, phone = EXCLUDED.phone, specialty = EXCLUDED.specialty,
			image_url = EXCLUDED.image_url, updated_at = NOW()`
	_, err = r.pool.Exec(ctx, upsert, trainerID, input.Bio, input.Phone, input.Specialty, input.ImageURL)
	return err
}

// GetSettings fetches a trainer's settings, or ErrNotFound when none exist yet.
func (r *Repository) GetSettings(ctx context.Context, trainerID int64) (*Settings, error) {
	const query = `SELECT timezone, week_start FROM trainer_settings WHERE trainer_id = $1`

	var settings Settings
	err := r.pool.QueryRow(ctx, query, trainerID).Scan(&settings.Timezone, &settings.WeekStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpsertSettings stores the trainer's settings.
func (r *Repository) UpsertSettings(ctx context.Context, trainerID int64, settings Settings) error {
	const query = `
		INSERT INTO trainer_settings (trainer_id, timezone, week_start, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (trainer_id) DO UPDATE
		SET timezone = EXCLUDED.timezone, week_start = EXCLUDED.week_start, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, query, trainerID, settings.Timezone, settings.WeekStart)
	return err
}
