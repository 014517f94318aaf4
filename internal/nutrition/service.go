package nutrition

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// PlanRepository defines the persistence operations the service relies on.
type PlanRepository interface {
	Create(ctx context.Context, input PlanInput, macros MacroTargets) (*Plan, error)
	Update(ctx context.Context, trainerID, planID int64, input PlanInput, macros MacroTargets) error
	Archive(ctx context.Context, trainerID, planID int64) error
	Get(ctx context.Context, trainerID, planID int64) (*Plan, error)
	List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error)
	Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error)
	Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error)
	CountLoggedMeals(ctx context.Context, planID int64) (int, error)
	CreateTemplate(ctx context.Context, input TemplateInput) (*MealTemplate, error)
	ListTemplates(ctx context.Context, trainerID int64) ([]MealTemplate, error)
	DeleteTemplate(ctx context.Context, trainerID, templateID int64) error
}

// MealsPerDay is the expected number of logged meals per plan day.
const MealsPerDay = 4

// Service exposes nutrition plan use cases.
type Service struct {
	repo   PlanRepository
	cache  *cache.StatsCache
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo PlanRepository, statsCache *cache.StatsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: statsCache, logger: logger, now: time.Now}
}

// ListPage is the rendered result of a filtered, paginated list request.
type ListPage struct {
	Plans      []Plan
	Pagination shared.Pagination
}

// CreatePlan computes macro targets for the goal and stores the plan.
func (s *Service) CreatePlan(ctx context.Context, input PlanInput) (*Plan, error) {
	macros, err := CalculateMacros(input.Goal, input.DailyCalories)
	if err != nil {
		return nil, err
	}
	if input.StartDate.IsZero() {
		input.StartDate = s.now()
	}
	plan, err := s.repo.Create(ctx, input, macros)
	if err != nil {
		return nil, err
	}
	s.bumpStats(ctx)
	return plan, nil
}

// UpdatePlan recomputes macros and edits an existing plan.
func (s *Service) UpdatePlan(ctx context.Context, trainerID, planID int64, input PlanInput) error {
	macros, err := CalculateMacros(input.Goal, input.DailyCalories)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, trainerID, planID, input, macros); err != nil {
		return err
	}
	s.bumpStats(ctx)
	return nil
}

// ArchivePlan removes a plan from the active listing.
func (s *Service) ArchivePlan(ctx context.Context, trainerID, planID int64) error {
	if err := s.repo.Archive(ctx, trainerID, planID); err != nil {
		return err
	}
	s.bumpStats(ctx)
	return nil
}

// GetPlan fetches a plan.
func (s *Service) GetPlan(ctx context.Context, trainerID, planID int64) (*Plan, error) {
	return s.repo.Get(ctx, trainerID, planID)
}

// Adherence reports the share of expected meals the member has logged since
// the plan started, as a percentage. A member logging more than the expected
// meals reads above 100; the value is deliberately not clamped.
func (s *Service) Adherence(ctx context.Context, plan *Plan) (float64, error) {
	logged, err := s.repo.CountLoggedMeals(ctx, plan.ID)
	if err != nil {
		return 0, err
	}
	daysElapsed := int(s.now().Sub(plan.StartDate).Hours()/24) + 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	expected := daysElapsed * MealsPerDay
	return float64(logged) / float64(expected) * 100, nil
}

// List fetches one page of plans plus the total count, sharing one predicate
// set between the two queries. Data-access failures degrade to an empty page.
func (s *Service) List(ctx context.Context, trainerID int64, criteria Criteria, pageNumber int) ListPage {
	var (
		plans []Plan
		total int
	)
	probe := shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plans, err = s.repo.List(gctx, trainerID, criteria, probe)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, trainerID, criteria)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("list nutrition plans", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return ListPage{Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)}
	}

	return ListPage{Plans: plans, Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, total)}
}

// Stats returns the trainer's aggregate snapshot, cache-aware; failures yield
// a zero-filled snapshot.
func (s *Service) Stats(ctx context.Context, trainerID int64, tz string) StatsSnapshot {
	loader := func(ctx context.Context) (any, error) {
		return s.repo.Stats(ctx, trainerID, tz)
	}

	key, err := s.cache.BuildKey(ctx, "stats", "nutrition", cache.FormatID(trainerID), tz)
	if err != nil {
		s.logger.Warn("build stats key", slog.Any("error", err))
		snapshot, err := s.repo.Stats(ctx, trainerID, tz)
		if err != nil {
			s.logger.Error("nutrition stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
			return StatsSnapshot{ByGoal: map[string]int{}}
		}
		return snapshot
	}

	var snapshot StatsSnapshot
	if err := s.cache.FetchJSON(ctx, key, &snapshot, loader); err != nil {
		s.logger.Error("nutrition stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return StatsSnapshot{ByGoal: map[string]int{}}
	}
	if snapshot.ByGoal == nil {
		snapshot.ByGoal = map[string]int{}
	}
	return snapshot
}

// CreateTemplate stores a reusable meal template.
func (s *Service) CreateTemplate(ctx context.Context, input TemplateInput) (*MealTemplate, error) {
	return s.repo.CreateTemplate(ctx, input)
}

// ListTemplates returns the trainer's meal templates.
func (s *Service) ListTemplates(ctx context.Context, trainerID int64) ([]MealTemplate, error) {
	return s.repo.ListTemplates(ctx, trainerID)
}

// DeleteTemplate removes a meal template.
func (s *Service) DeleteTemplate(ctx context.Context, trainerID, templateID int64) error {
	return s.repo.DeleteTemplate(ctx, trainerID, templateID)
}

func (s *Service) bumpStats(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump stats cache", slog.Any("error", err))
	}
}
