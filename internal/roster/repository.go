package roster

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the trainer roster.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func buildFilter(trainerID int64, criteria Criteria) *shared.Filter {
	f := shared.NewFilter("tm.trainer_id", trainerID)
	f.Search(criteria.Search, "m.name", "m.email")
	return f
}

// ListAssigned returns one page of the trainer's roster matching the criteria,
// most recently assigned first with an id tie-break.
func (r *Repository) ListAssigned(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Member, error) {
	f := buildFilter(trainerID, criteria)
	limit, args := f.WithPage(page)
	query := `
		SELECT m.id, m.name, m.email, COALESCE(m.image_url, ''), m.joined_at, m.created_at, tm.assigned_at
		FROM trainer_members tm
		JOIN members m ON m.id = tm.member_id` +
		f.Where() + `
		ORDER BY tm.assigned_at DESC, m.id DESC` + limit

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var member Member
		err := rows.Scan(&member.ID, &member.Name, &member.Email, &member.ImageURL,
			&member.JoinedAt, &member.CreatedAt, &member.AssignedAt)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// CountAssigned mirrors ListAssigned's predicates without paging.
func (r *Repository) CountAssigned(ctx context.Context, trainerID int64, criteria Criteria) (int, error) {
	f := buildFilter(trainerID, criteria)
	query := `
		SELECT COUNT(*)
		FROM trainer_members tm
		JOIN members m ON m.id = tm.member_id` + f.Where()

	var count int
	err := r.pool.QueryRow(ctx, query, f.Args()...).Scan(&count)
	return count, err
}

// SearchUnassigned finds members not yet on the trainer's roster.
func (r *Repository) SearchUnassigned(ctx context.Context, trainerID int64, term string, limit int) ([]Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, COALESCE(m.image_url, ''), m.joined_at, m.created_at
		FROM members m
		WHERE NOT EXISTS (
			SELECT 1 FROM trainer_members tm WHERE tm.member_id = m.id AND tm.trainer_id = $1
		)
		AND (LOWER(m.name) LIKE $2 OR LOWER(m.email) LIKE $2)
		ORDER BY m.name ASC, m.id ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, trainerID, "%"+strings.ToLower(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var member Member
		err := rows.Scan(&member.ID, &member.Name, &member.Email, &member.ImageURL,
			&member.JoinedAt, &member.CreatedAt)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Assign links a member to the trainer's roster. A duplicate assignment
// surfaces as ErrAlreadyAssigned via the unique constraint.
func (r *Repository) Assign(ctx context.Context, trainerID, memberID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trainer_members (trainer_id, member_id, assigned_at) VALUES ($1, $2, NOW())`,
		trainerID, memberID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadyAssigned
		case "23503":
			return shared.ErrNotFound
		}
	}
	return err
}

// Unassign removes a member from the trainer's roster.
func (r *Repository) Unassign(ctx context.Context, trainerID, memberID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM trainer_members WHERE trainer_id = $1 AND member_id = $2`,
		trainerID, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetDetail fetches an assigned member with their per-trainer counters.
func (r *Repository) GetDetail(ctx context.Context, trainerID, memberID int64) (*Detail, error) {
	const memberQuery = `
		SELECT m.id, m.name, m.email, COALESCE(m.image_url, ''), m.joined_at, m.created_at, tm.assigned_at
		FROM trainer_members tm
		JOIN members m ON m.id = tm.member_id
		WHERE tm.trainer_id = $1 AND tm.member_id = $2`

	var detail Detail
	err := r.pool.QueryRow(ctx, memberQuery, trainerID, memberID).Scan(
		&detail.Member.ID, &detail.Member.Name, &detail.Member.Email, &detail.Member.ImageURL,
		&detail.Member.JoinedAt, &detail.Member.CreatedAt, &detail.Member.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	const countersQuery = `
		SELECT
			(SELECT COUNT(*) FROM gym_sessions WHERE trainer_id = $1 AND member_id = $2),
			(SELECT COUNT(*) FROM workout_plans WHERE trainer_id = $1 AND member_id = $2 AND NOT is_archived),
			(SELECT COUNT(*) FROM nutrition_plans WHERE trainer_id = $1 AND member_id = $2 AND NOT is_archived),
			(SELECT COUNT(*) FROM activity_log WHERE trainer_id = $1 AND member_id = $2)`
	err = r.pool.QueryRow(ctx, countersQuery, trainerID, memberID).Scan(
		&detail.Counters.Sessions, &detail.Counters.WorkoutPlans,
		&detail.Counters.NutritionPlans, &detail.Counters.ActivityNotes)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// AssignedOptions returns the trainer's full roster as id/name pairs for the
// plan form selects.
func (r *Repository) AssignedOptions(ctx context.Context, trainerID int64) ([]Member, error) {
	const query = `
		SELECT m.id, m.name
		FROM trainer_members tm
		JOIN members m ON m.id = tm.member_id
		WHERE tm.trainer_id = $1
		ORDER BY m.name ASC`

	rows, err := r.pool.Query(ctx, query, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var member Member
		if err := rows.Scan(&member.ID, &member.Name); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
