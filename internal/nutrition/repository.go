package nutrition

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// Repository provides PostgreSQL backed persistence for nutrition plans,
// meal templates and meal logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func buildFilter(trainerID int64, criteria Criteria) *shared.Filter {
	f := shared.NewFilter("n.trainer_id", trainerID)
	f.EqualsIf("n.goal", string(criteria.Goal))
	f.EqualsIfID("n.member_id", criteria.MemberID)
	f.Search(criteria.Search, "n.title", "n.notes")
	return f
}

// Create stores a new plan with its computed macro targets.
func (r *Repository) Create(ctx context.Context, input PlanInput, macros MacroTargets) (*Plan, error) {
	const query = `
		INSERT INTO nutrition_plans
			(trainer_id, member_id, title, goal, daily_calories, protein_grams, carb_grams, fat_grams, notes, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	plan := Plan{
		TrainerID:     input.TrainerID,
		MemberID:      input.MemberID,
		Title:         input.Title,
		Goal:          input.Goal,
		DailyCalories: input.DailyCalories,
		ProteinGrams:  macros.ProteinGrams,
		CarbGrams:     macros.CarbGrams,
		FatGrams:      macros.FatGrams,
		Notes:         input.Notes,
		StartDate:     input.StartDate,
	}
	err := r.pool.QueryRow(ctx, query,
		input.TrainerID, input.MemberID, input.Title, string(input.Goal), input.DailyCalories,
		macros.ProteinGrams, macros.CarbGrams, macros.FatGrams, input.Notes, input.StartDate,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update edits an existing plan. Last write wins.
func (r *Repository) Update(ctx context.Context, trainerID, planID int64, input PlanInput, macros MacroTargets) error {
	const query = `
		UPDATE nutrition_plans
		SET title = $3, goal = $4, daily_calories = $5, protein_grams = $6, carb_grams = $7, fat_grams = $8,
			notes = $9, start_date = $10, updated_at = NOW()
		WHERE id = $1 AND trainer_id = $2`

	tag, err := r.pool.Exec(ctx, query, planID, trainerID,
		input.Title, string(input.Goal), input.DailyCalories,
		macros.ProteinGrams, macros.CarbGrams, macros.FatGrams, input.Notes, input.StartDate)
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
		`UPDATE nutrition_plans SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND trainer_id = $2`,
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
		SELECT n.id, n.trainer_id, n.member_id, n.title, n.goal, n.daily_calories,
			n.protein_grams, n.carb_grams, n.fat_grams, n.notes, n.start_date,
			n.is_archived, n.created_at, n.updated_at,
			COALESCE(m.name, ''), COALESCE(m.image_url, '')
		FROM nutrition_plans n
		LEFT JOIN members m ON m.id = n.member_id
		WHERE n.id = $1 AND n.trainer_id = $2`

	var plan Plan
	err := r.pool.QueryRow(ctx, query, planID, trainerID).Scan(
		&plan.ID, &plan.TrainerID, &plan.MemberID, &plan.Title, &plan.Goal, &plan.DailyCalories,
		&plan.ProteinGrams, &plan.CarbGrams, &plan.FatGrams, &plan.Notes, &plan.StartDate,
		&plan.IsArchived, &plan.CreatedAt, &plan.UpdatedAt,
		&plan.MemberName, &plan.MemberImage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// List returns one page of non-archived plans matching the criteria, most
// recent first with an id tie-break.
func (r *Repository) List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error) {
	f := buildFilter(trainerID, criteria)
	limit, args := f.WithPage(page)
	query := `
		SELECT n.id, n.trainer_id, n.member_id, n.title, n.goal, n.daily_calories,
			n.protein_grams, n.carb_grams, n.fat_grams, n.notes, n.start_date,
			n.is_archived, n.created_at, n.updated_at,
			COALESCE(m.name, ''), COALESCE(m.image_url, '')
		FROM nutrition_plans n
		LEFT JOIN members m ON m.id = n.member_id` +
		f.Where() + ` AND NOT n.is_archived
		ORDER BY n.created_at DESC, n.id DESC` + limit

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		err := rows.Scan(
			&plan.ID, &plan.TrainerID, &plan.MemberID, &plan.Title, &plan.Goal, &plan.DailyCalories,
			&plan.ProteinGrams, &plan.CarbGrams, &plan.FatGrams, &plan.Notes, &plan.StartDate,
			&plan.IsArchived, &plan.CreatedAt, &plan.UpdatedAt,
			&plan.MemberName, &plan.MemberImage,
		)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Count mirrors List's predicates without paging.
func (r *Repository) Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error) {
	f := buildFilter(trainerID, criteria)
	query := `SELECT COUNT(*) FROM nutrition_plans n` + f.Where() + ` AND NOT n.is_archived`

	var count int
	err := r.pool.QueryRow(ctx, query, f.Args()...).Scan(&count)
	return count, err
}

// Stats aggregates the trainer's plans; the list filter never applies.
func (r *Repository) Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{ByGoal: map[string]int{}}

	const totalsQuery = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE (created_at AT TIME ZONE $2)::date = (NOW() AT TIME ZONE $2)::date),
			COUNT(*) FILTER (WHERE date_trunc('week', created_at AT TIME ZONE $2) = date_trunc('week', NOW() AT TIME ZONE $2))
		FROM nutrition_plans
		WHERE trainer_id = $1 AND NOT is_archived`
	if err := r.pool.QueryRow(ctx, totalsQuery, trainerID, tz).Scan(&snapshot.Total, &snapshot.Today, &snapshot.ThisWeek); err != nil {
		return StatsSnapshot{ByGoal: map[string]int{}}, err
	}

	const byGoalQuery = `
		SELECT goal, COUNT(*)
		FROM nutrition_plans
		WHERE trainer_id = $1 AND NOT is_archived
		GROUP BY goal`
	rows, err := r.pool.Query(ctx, byGoalQuery, trainerID)
	if err != nil {
		return StatsSnapshot{ByGoal: map[string]int{}}, err
	}
	defer rows.Close()
	for rows.Next() {
		var goal string
		var count int
		if err := rows.Scan(&goal, &count); err != nil {
			return StatsSnapshot{ByGoal: map[string]int{}}, err
		}
		snapshot.ByGoal[goal] = count
	}
	if err := rows.Err(); err != nil {
		return StatsSnapshot{ByGoal: map[string]int{}}, err
	}

	// Tie-break: highest count first, then lowest member id.
	const topMemberQuery = `
		SELECT m.id, m.name, COUNT(*) AS plans
		FROM nutrition_plans n
		JOIN members m ON m.id = n.member_id
		WHERE n.trainer_id = $1 AND NOT n.is_archived
		GROUP BY m.id, m.name
		ORDER BY plans DESC, m.id ASC
		LIMIT 1`
	var top TopMember
	err = r.pool.QueryRow(ctx, topMemberQuery, trainerID).Scan(&top.MemberID, &top.Name, &top.Count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return StatsSnapshot{ByGoal: map[string]int{}}, err
	default:
		snapshot.TopMember = &top
	}

	return snapshot, nil
}

// CountLoggedMeals counts the member's logged meals for a plan since its
// start date.
func (r *Repository) CountLoggedMeals(ctx context.Context, planID int64) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM meal_logs l
		JOIN nutrition_plans n ON n.id = l.plan_id
		WHERE l.plan_id = $1 AND l.logged_at >= n.start_date`

	var count int
	err := r.pool.QueryRow(ctx, query, planID).Scan(&count)
	return count, err
}

// CreateTemplate stores a reusable meal template.
func (r *Repository) CreateTemplate(ctx context.Context, input TemplateInput) (*MealTemplate, error) {
	const query = `
		INSERT INTO meal_templates
			(trainer_id, name, description, meal_type, calories, protein_grams, carb_grams, fat_grams, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`

	tmpl := MealTemplate{
		TrainerID:    input.TrainerID,
		Name:         input.Name,
		Description:  input.Description,
		MealType:     input.MealType,
		Calories:     input.Calories,
		ProteinGrams: input.ProteinGrams,
		CarbGrams:    input.CarbGrams,
		FatGrams:     input.FatGrams,
	}
	err := r.pool.QueryRow(ctx, query,
		input.TrainerID, input.Name, input.Description, input.MealType,
		input.Calories, input.ProteinGrams, input.CarbGrams, input.FatGrams,
	).Scan(&tmpl.ID, &tmpl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// ListTemplates returns the trainer's meal templates, newest first.
func (r *Repository) ListTemplates(ctx context.Context, trainerID int64) ([]MealTemplate, error) {
	const query = `
		SELECT id, trainer_id, name, description, meal_type, calories, protein_grams, carb_grams, fat_grams, created_at
		FROM meal_templates
		WHERE trainer_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []MealTemplate
	for rows.Next() {
		var tmpl MealTemplate
		err := rows.Scan(&tmpl.ID, &tmpl.TrainerID, &tmpl.Name, &tmpl.Description, &tmpl.MealType,
			&tmpl.Calories, &tmpl.ProteinGrams, &tmpl.CarbGrams, &tmpl.FatGrams, &tmpl.CreatedAt)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a trainer's meal template.
func (r *Repository) DeleteTemplate(ctx context.Context, trainerID, templateID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM meal_templates WHERE id = $1 AND trainer_id = $2`, templateID, trainerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
