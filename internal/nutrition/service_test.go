package nutrition

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

type memoryNutritionRepo struct {
	plans       map[int64]Plan
	templates   map[int64]MealTemplate
	loggedMeals map[int64]int
	nextID      int64
}

func newMemoryNutritionRepo() *memoryNutritionRepo {
	return &memoryNutritionRepo{
		plans:       map[int64]Plan{},
		templates:   map[int64]MealTemplate{},
		loggedMeals: map[int64]int{},
		nextID:      1,
	}
}

func (m *memoryNutritionRepo) Create(_ context.Context, input PlanInput, macros MacroTargets) (*Plan, error) {
	plan := Plan{
		ID:            m.nextID,
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
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.plans[plan.ID] = plan
	m.nextID++
	return &plan, nil
}

func (m *memoryNutritionRepo) Update(_ context.Context, trainerID, planID int64, input PlanInput, macros MacroTargets) error {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	plan.Title = input.Title
	plan.Goal = input.Goal
	plan.DailyCalories = input.DailyCalories
	plan.ProteinGrams = macros.ProteinGrams
	plan.CarbGrams = macros.CarbGrams
	plan.FatGrams = macros.FatGrams
	plan.Notes = input.Notes
	m.plans[planID] = plan
	return nil
}

func (m *memoryNutritionRepo) Archive(_ context.Context, trainerID, planID int64) error {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	plan.IsArchived = true
	m.plans[planID] = plan
	return nil
}

func (m *memoryNutritionRepo) Get(_ context.Context, trainerID, planID int64) (*Plan, error) {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return nil, shared.ErrNotFound
	}
	return &plan, nil
}

func (m *memoryNutritionRepo) matching(trainerID int64, criteria Criteria) []Plan {
	var out []Plan
	for _, plan := range m.plans {
		if plan.TrainerID != trainerID || plan.IsArchived {
			continue
		}
		if criteria.Goal != "" && plan.Goal != criteria.Goal {
			continue
		}
		if criteria.MemberID != 0 && plan.MemberID != criteria.MemberID {
			continue
		}
		if criteria.Search != "" {
			needle := strings.ToLower(criteria.Search)
			if !strings.Contains(strings.ToLower(plan.Title), needle) &&
				!strings.Contains(strings.ToLower(plan.Notes), needle) {
				continue
			}
		}
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryNutritionRepo) List(_ context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error) {
	all := m.matching(trainerID, criteria)
	start := page.Offset()
	if start >= len(all) {
		return nil, nil
	}
	end := start + page.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *memoryNutritionRepo) Count(_ context.Context, trainerID int64, criteria Criteria) (int, error) {
	return len(m.matching(trainerID, criteria)), nil
}

func (m *memoryNutritionRepo) Stats(_ context.Context, trainerID int64, _ string) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{ByGoal: map[string]int{}}
	for _, plan := range m.plans {
		if plan.TrainerID != trainerID || plan.IsArchived {
			continue
		}
		snapshot.Total++
		snapshot.ByGoal[string(plan.Goal)]++
	}
	return snapshot, nil
}

func (m *memoryNutritionRepo) CountLoggedMeals(_ context.Context, planID int64) (int, error) {
	return m.loggedMeals[planID], nil
}

func (m *memoryNutritionRepo) CreateTemplate(_ context.Context, input TemplateInput) (*MealTemplate, error) {
	tmpl := MealTemplate{
		ID:           m.nextID,
		TrainerID:    input.TrainerID,
		Name:         input.Name,
		Description:  input.Description,
		MealType:     input.MealType,
		Calories:     input.Calories,
		ProteinGrams: input.ProteinGrams,
		CarbGrams:    input.CarbGrams,
		FatGrams:     input.FatGrams,
		CreatedAt:    time.Now(),
	}
	m.templates[tmpl.ID] = tmpl
	m.nextID++
	return &tmpl, nil
}

func (m *memoryNutritionRepo) ListTemplates(_ context.Context, trainerID int64) ([]MealTemplate, error) {
	var out []MealTemplate
	for _, tmpl := range m.templates {
		if tmpl.TrainerID == trainerID {
			out = append(out, tmpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryNutritionRepo) DeleteTemplate(_ context.Context, trainerID, templateID int64) error {
	tmpl, ok := m.templates[templateID]
	if !ok || tmpl.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	delete(m.templates, templateID)
	return nil
}

func newTestService(repo PlanRepository) *Service {
	return NewService(repo, cache.NewStatsCache(nil, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreatePlanComputesMacros(t *testing.T) {
	svc := newTestService(newMemoryNutritionRepo())

	plan, err := svc.CreatePlan(context.Background(), PlanInput{
		TrainerID: 1, MemberID: 3, Title: "Bulk", Goal: GoalMuscleGain, DailyCalories: 2000,
	})
	require.NoError(t, err)
	require.Equal(t, 125, plan.ProteinGrams)
	require.Equal(t, 225, plan.CarbGrams)
	require.Equal(t, 67, plan.FatGrams)
	require.False(t, plan.StartDate.IsZero())
}

func TestCreatePlanRejectsUnknownGoal(t *testing.T) {
	svc := newTestService(newMemoryNutritionRepo())

	_, err := svc.CreatePlan(context.Background(), PlanInput{
		TrainerID: 1, MemberID: 3, Title: "Fad", Goal: Goal("carnivore"), DailyCalories: 2000,
	})
	require.ErrorIs(t, err, ErrInvalidGoalCategory)
}

func TestAdherenceNotClamped(t *testing.T) {
	repo := newMemoryNutritionRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, -4)
	plan, err := svc.CreatePlan(ctx, PlanInput{
		TrainerID: 1, MemberID: 3, Title: "Cut", Goal: GoalWeightLoss, DailyCalories: 1600, StartDate: start,
	})
	require.NoError(t, err)

	// 5 elapsed days at 4 meals/day expects 20 meals; 15 logged is 75%.
	repo.loggedMeals[plan.ID] = 15
	adherence, err := svc.Adherence(ctx, plan)
	require.NoError(t, err)
	require.InDelta(t, 75.0, adherence, 0.01)

	// Over-logging reads above 100 on purpose.
	repo.loggedMeals[plan.ID] = 24
	adherence, err = svc.Adherence(ctx, plan)
	require.NoError(t, err)
	require.Greater(t, adherence, 100.0)
}

func TestListFilterAndCountAgree(t *testing.T) {
	repo := newMemoryNutritionRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, MemberID: 5, Title: "Cut phase", Goal: GoalWeightLoss, DailyCalories: 1600})
		require.NoError(t, err)
	}
	_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, MemberID: 6, Title: "Bulk phase", Goal: GoalMuscleGain, DailyCalories: 3000})
	require.NoError(t, err)

	page := svc.List(ctx, 1, Criteria{Goal: GoalWeightLoss}, 1)
	require.Len(t, page.Plans, 3)
	require.Equal(t, 3, page.Pagination.Total)

	page = svc.List(ctx, 1, Criteria{MemberID: 6}, 1)
	require.Len(t, page.Plans, 1)
	require.Equal(t, 1, page.Pagination.Total)

	page = svc.List(ctx, 1, Criteria{}, 9)
	require.Empty(t, page.Plans)
	require.Equal(t, 4, page.Pagination.Total)
}

func TestTemplateLifecycle(t *testing.T) {
	svc := newTestService(newMemoryNutritionRepo())
	ctx := context.Background()

	tmpl, err := svc.CreateTemplate(ctx, TemplateInput{
		TrainerID: 1, Name: "Overnight oats", MealType: "breakfast", Calories: 420, ProteinGrams: 22, CarbGrams: 60, FatGrams: 11,
	})
	require.NoError(t, err)

	list, err := svc.ListTemplates(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, svc.DeleteTemplate(ctx, 2, tmpl.ID), shared.ErrNotFound)
	require.NoError(t, svc.DeleteTemplate(ctx, 1, tmpl.ID))

	list, err = svc.ListTemplates(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, list)
}
