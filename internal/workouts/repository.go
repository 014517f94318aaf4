package workouts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for workout plans.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func buildFilter(trainerID int64, criteria Criteria) *shared.Filter {
	f := shared.NewFilter("p.trainer_id", trainerID)
	f.EqualsIf("p.category", string(criteria.Category))
	f.EqualsIfID("p.member_id", criteria.MemberID)
	f.Search(criteria.Search, "p.title", "p.description")
	return f
}

// Create stores a new plan.
func (r *Repository) Create(ctx context.Context, input PlanInput) (*Plan, error) {
	const query = `
		INSERT INTO workout_plans (trainer_id, member_id, title, description, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var memberID pgtype.Int8
	if input.MemberID > 0 {
		memberID = pgtype.Int8{Int64: input.MemberID, Valid: true}
	}

	plan := Plan{
		TrainerID:   input.TrainerID,
		MemberID:    input.MemberID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
	}
	err := r.pool.QueryRow(ctx, query,
		input.TrainerID, memberID, input.Title, input.Description, string(input.Category),
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update edits an existing plan. Last write wins; there is no optimistic
// locking on concurrent edits.
func (r *Repository) Update(ctx context.Context, trainerID, planID int64, input PlanInput) error {
	const query = `
		UPDATE workout_plans
		SET title = $3, description = $4, category = $5, updated_at = NOW()
		WHERE id = $1 AND trainer_id = $2`

	tag, err := r.pool.Exec(ctx, query, planID, trainerID, input.Title, input.Description, string(input.Category))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Archive hides a plan from the active listing without deleting it.
func (r *Repository) Archive(ctx context.Context, trainerID, planID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE workout_plans SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND trainer_id = $2`,
		planID, trainerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Get fetches a single plan owned by the trainer.
func (r *Repository) Get(ctx context.Context, trainerID, planID int64) (*Plan, error) {
	const query = `
		SELECT p.id, p.trainer_id, p.member_id, p.title, p.description, p.category,
			p.is_archived, p.created_at, p.updated_at,
			COALESCE(m.name, ''), COALESCE(m.image_url, ''),
			(SELECT COUNT(*) FROM workout_exercises e WHERE e.plan_id = p.id)
		FROM workout_plans p
		LEFT JOIN members m ON m.id = p.member_id
		WHERE p.id = $1 AND p.trainer_id = $2`

	var plan Plan
	var memberID pgtype.Int8
	err := r.pool.QueryRow(ctx, query, planID, trainerID).Scan(
		&plan.ID, &plan.TrainerID, &memberID, &plan.Title, &plan.Description, &plan.Category,
		&plan.IsArchived, &plan.CreatedAt, &plan.UpdatedAt,
		&plan.MemberName, &plan.MemberImage, &plan.ExerciseCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	plan.MemberID = memberID.Int64
	return &plan, nil
}

// List returns one page of non-archived plans matching the criteria, most
// recent first with an id tie-break.
func (r *Repository) List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error) {
	f := buildFilter(trainerID, criteria)
	limit, args := f.WithPage(page)
	query := `
		SELECT p.id, p.trainer_id, p.member_id, p.title, p.description, p.category,
			p.is_archived, p.created_at, p.updated_at,
			COALESCE(m.name, ''), COALESCE(m.image_url, ''),
			(SELECT COUNT(*) FROM workout_exercises e WHERE e.plan_id = p.id)
		FROM workout_plans p
		LEFT JOIN members m ON m.id = p.member_id` +
		f.Where() + ` AND NOT p.is_archived
		ORDER BY p.created_at DESC, p.id DESC` + limit

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		var memberID pgtype.Int8
		err := rows.Scan(
			&plan.ID, &plan.TrainerID, &memberID, &plan.Title, &plan.Description, &plan.Category,
			&plan.IsArchived, &plan.CreatedAt, &plan.UpdatedAt,
			&plan.MemberName, &plan.MemberImage, &plan.ExerciseCount,
		)
		if err != nil {
			return nil, err
		}
		plan.MemberID = memberID.Int64
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Count mirrors List's predicates without paging.
func (r *Repository) Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error) {
	f := buildFilter(trainerID, criteria)
	query := `SELECT COUNT(*) FROM workout_plans p` + f.Where() + ` AND NOT p.is_archived`

	var count int
	err := r.pool.QueryRow(ctx, query, f.Args()...).Scan(&count)
	return count, err
}

// Stats aggregates the trainer's plans; the list filter never applies.
func (r *Repository) Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{ByCategory: map[string]int{}}

	const totalsQuery = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE (created_at AT TIME ZONE $2)::date = (NOW() AT TIME ZONE $2)::date),
			COUNT(*) FILTER (WHERE date_trunc('week', created_at AT TIME ZONE $2) = date_trunc('week', NOW() AT TIME ZONE $2))
		FROM workout_plans
		WHERE trainer_id = $1 AND NOT is_archived`
	if err := r.pool.QueryRow(ctx, totalsQuery, trainerID, tz).Scan(&snapshot.Total, &snapshot.Today, &snapshot.ThisWeek); err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}

	const byCategoryQuery = `
		SELECT category, COUNT(*)
		FROM workout_plans
		WHERE trainer_id = $1 AND NOT is_archived
		GROUP BY category`
	rows, err := r.pool.Query(ctx, byCategoryQuery, trainerID)
	if err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return StatsSnapshot{ByCategory: map[string]int{}}, err
		}
		snapshot.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	}

	// Tie-break: highest count first, then lowest member id.
	const topMemberQuery = `
		SELECT m.id, m.name, COUNT(*) AS plans
		FROM workout_plans p
		JOIN members m ON m.id = p.member_id
		WHERE p.trainer_id = $1 AND NOT p.is_archived
		GROUP BY m.id, m.name
		ORDER BY plans DESC, m.id ASC
		LIMIT 1`
	var top TopMember
	err = r.pool.QueryRow(ctx, topMemberQuery, trainerID).Scan(&top.MemberID, &top.Name, &top.Count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return StatsSnapshot{ByCategory: map[string]int{}}, err
	default:
		snapshot.TopMember = &top
	}

	return snapshot, nil
}

// ReplaceExercises swaps the full exercise list of a plan.
func (r *Repository) ReplaceExercises(ctx context.Context, trainerID, planID int64, exercises []Exercise) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var owner int64
	err = tx.QueryRow(ctx, `SELECT trainer_id FROM workout_plans WHERE id = $1`, planID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != trainerID) {
		return shared.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE plan_id = $1`, planID); err != nil {
		return err
	}
	for i, ex := range exercises {
		_, err := tx.Exec(ctx,
			`INSERT INTO workout_exercises (plan_id, name, sets, reps, rest_secs, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			planID, ex.Name, ex.Sets, ex.Reps, ex.RestSecs, i+1)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListExercises returns a plan's exercises in prescribed order.
func (r *Repository) ListExercises(ctx context.Context, planID int64) ([]Exercise, error) {
	const query = `
		SELECT id, plan_id, name, sets, reps, rest_secs, position
		FROM workout_exercises
		WHERE plan_id = $1
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		var ex Exercise
		if err := rows.Scan(&ex.ID, &ex.PlanID, &ex.Name, &ex.Sets, &ex.Reps, &ex.RestSecs, &ex.Position); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}
