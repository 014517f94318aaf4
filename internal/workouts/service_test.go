package workouts

import (
	"context"
	"errors"
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

type memoryPlanRepo struct {
	plans     map[int64]Plan
	exercises map[int64][]Exercise
	nextID    int64
	failList  bool
	failCount bool
}

func newMemoryPlanRepo() *memoryPlanRepo {
	return &memoryPlanRepo{plans: map[int64]Plan{}, exercises: map[int64][]Exercise{}, nextID: 1}
}

func (m *memoryPlanRepo) Create(_ context.Context, input PlanInput) (*Plan, error) {
	plan := Plan{
		ID:          m.nextID,
		TrainerID:   input.TrainerID,
		MemberID:    input.MemberID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.plans[plan.ID] = plan
	m.nextID++
	return &plan, nil
}

func (m *memoryPlanRepo) Update(_ context.Context, trainerID, planID int64, input PlanInput) error {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	plan.Title = input.Title
	plan.Description = input.Description
	plan.Category = input.Category
	plan.UpdatedAt = time.Now()
	m.plans[planID] = plan
	return nil
}

func (m *memoryPlanRepo) Archive(_ context.Context, trainerID, planID int64) error {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	plan.IsArchived = true
	m.plans[planID] = plan
	return nil
}

func (m *memoryPlanRepo) Get(_ context.Context, trainerID, planID int64) (*Plan, error) {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return nil, shared.ErrNotFound
	}
	return &plan, nil
}

func (m *memoryPlanRepo) matching(trainerID int64, criteria Criteria) []Plan {
	var out []Plan
	for _, plan := range m.plans {
		if plan.TrainerID != trainerID || plan.IsArchived {
			continue
		}
		if criteria.Category != "" && plan.Category != criteria.Category {
			continue
		}
		if criteria.MemberID != 0 && plan.MemberID != criteria.MemberID {
			continue
		}
		if criteria.Search != "" {
			needle := strings.ToLower(criteria.Search)
			if !strings.Contains(strings.ToLower(plan.Title), needle) &&
				!strings.Contains(strings.ToLower(plan.Description), needle) {
				continue
			}
		}
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryPlanRepo) List(_ context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error) {
	if m.failList {
		return nil, errors.New("boom")
	}
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

func (m *memoryPlanRepo) Count(_ context.Context, trainerID int64, criteria Criteria) (int, error) {
	if m.failCount {
		return 0, errors.New("boom")
	}
	return len(m.matching(trainerID, criteria)), nil
}

func (m *memoryPlanRepo) Stats(_ context.Context, trainerID int64, _ string) (StatsSnapshot, error) {
	snapshot := StatsSnapshot{ByCategory: map[string]int{}}
	for _, plan := range m.plans {
		if plan.TrainerID != trainerID || plan.IsArchived {
			continue
		}
		snapshot.Total++
		snapshot.ByCategory[string(plan.Category)]++
	}
	return snapshot, nil
}

func (m *memoryPlanRepo) ReplaceExercises(_ context.Context, trainerID, planID int64, exercises []Exercise) error {
	plan, ok := m.plans[planID]
	if !ok || plan.TrainerID != trainerID {
		return shared.ErrNotFound
	}
	m.exercises[planID] = exercises
	return nil
}

func (m *memoryPlanRepo) ListExercises(_ context.Context, planID int64) ([]Exercise, error) {
	return m.exercises[planID], nil
}

func newTestService(repo PlanRepository) *Service {
	return NewService(repo, cache.NewStatsCache(nil, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreatePlanRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(newMemoryPlanRepo())

	_, err := svc.CreatePlan(context.Background(), PlanInput{TrainerID: 1, Title: "X", Category: "crossfit"})
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestListAndCountShareFilter(t *testing.T) {
	repo := newMemoryPlanRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, MemberID: 7, Title: "Leg day", Category: CategoryStrength})
		require.NoError(t, err)
	}
	_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, Title: "Mobility flow", Category: CategoryFlexibility})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, PlanInput{TrainerID: 2, Title: "Other trainer", Category: CategoryStrength})
	require.NoError(t, err)

	page := svc.List(ctx, 1, Criteria{Category: CategoryStrength}, 1)
	require.Len(t, page.Plans, 5)
	require.Equal(t, 5, page.Pagination.Total)

	page = svc.List(ctx, 1, Criteria{Search: "mobility"}, 1)
	require.Len(t, page.Plans, 1)
	require.Equal(t, 1, page.Pagination.Total)
}

func TestListPaginationBounds(t *testing.T) {
	repo := newMemoryPlanRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 45; i++ {
		_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, Title: "Plan", Category: CategoryCardio})
		require.NoError(t, err)
	}

	page := svc.List(ctx, 1, Criteria{}, 3)
	require.Len(t, page.Plans, 5)
	require.Equal(t, 3, page.Pagination.TotalPages)

	// Out-of-range pages render empty, not an error.
	page = svc.List(ctx, 1, Criteria{}, 99)
	require.Empty(t, page.Plans)
	require.Equal(t, 45, page.Pagination.Total)

	// Zero and negative pages clamp to the first page.
	page = svc.List(ctx, 1, Criteria{}, 0)
	require.Equal(t, 1, page.Pagination.Page)
	require.Len(t, page.Plans, 20)
}

func TestListDegradesOnRepositoryFailure(t *testing.T) {
	repo := newMemoryPlanRepo()
	repo.failCount = true
	svc := newTestService(repo)

	page := svc.List(context.Background(), 1, Criteria{}, 1)
	require.Empty(t, page.Plans)
	require.Zero(t, page.Pagination.Total)
}

func TestStatsIgnoresListFilter(t *testing.T) {
	repo := newMemoryPlanRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, Title: "A", Category: CategoryStrength})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, PlanInput{TrainerID: 1, Title: "B", Category: CategoryCardio})
	require.NoError(t, err)

	snapshot := svc.Stats(ctx, 1, "UTC")
	require.Equal(t, 2, snapshot.Total)
	require.Equal(t, 1, snapshot.ByCategory["strength"])
	require.Equal(t, 1, snapshot.ByCategory["cardio"])
}

func TestArchiveHidesPlanFromListing(t *testing.T) {
	repo := newMemoryPlanRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, PlanInput{TrainerID: 1, Title: "Old", Category: CategoryStrength})
	require.NoError(t, err)
	require.NoError(t, svc.ArchivePlan(ctx, 1, plan.ID))

	page := svc.List(ctx, 1, Criteria{}, 1)
	require.Empty(t, page.Plans)

	require.ErrorIs(t, svc.ArchivePlan(ctx, 2, plan.ID), shared.ErrNotFound)
}
