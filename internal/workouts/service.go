package workouts

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// PlanRepository defines the persistence operations the service relies on.
type PlanRepository interface {
	Create(ctx context.Context, input PlanInput) (*Plan, error)
	Update(ctx context.Context, trainerID, planID int64, input PlanInput) error
	Archive(ctx context.Context, trainerID, planID int64) error
	Get(ctx context.Context, trainerID, planID int64) (*Plan, error)
	List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Plan, error)
	Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error)
	Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error)
	ReplaceExercises(ctx context.Context, trainerID, planID int64, exercises []Exercise) error
	ListExercises(ctx context.Context, planID int64) ([]Exercise, error)
}

// ErrInvalidCategory rejects authoring with an unknown category.
var ErrInvalidCategory = errors.New("workouts: invalid category")

// Service exposes workout plan use cases.
type Service struct {
	repo   PlanRepository
	cache  *cache.StatsCache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo PlanRepository, statsCache *cache.StatsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: statsCache, logger: logger}
}

// ListPage is the rendered result of a filtered, paginated list request.
type ListPage struct {
	Plans      []Plan
	Pagination shared.Pagination
}

// CreatePlan authors a new plan.
func (s *Service) CreatePlan(ctx context.Context, input PlanInput) (*Plan, error) {
	if !validCategory(input.Category) {
		return nil, ErrInvalidCategory
	}
	plan, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.bumpStats(ctx)
	return plan, nil
}

// UpdatePlan edits an existing plan.
func (s *Service) UpdatePlan(ctx context.Context, trainerID, planID int64, input PlanInput) error {
	if !validCategory(input.Category) {
		return ErrInvalidCategory
	}
	if err := s.repo.Update(ctx, trainerID, planID, input); err != nil {
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

// GetPlan fetches a plan with its exercises.
func (s *Service) GetPlan(ctx context.Context, trainerID, planID int64) (*Plan, []Exercise, error) {
	plan, err := s.repo.Get(ctx, trainerID, planID)
	if err != nil {
		return nil, nil, err
	}
	exercises, err := s.repo.ListExercises(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	return plan, exercises, nil
}

// SetExercises replaces a plan's exercise prescription.
func (s *Service) SetExercises(ctx context.Context, trainerID, planID int64, exercises []Exercise) error {
	return s.repo.ReplaceExercises(ctx, trainerID, planID, exercises)
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
		s.logger.Error("list workout plans", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
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

	key, err := s.cache.BuildKey(ctx, "stats", "workouts", cache.FormatID(trainerID), tz)
	if err == nil {
		var snapshot StatsSnapshot
		if err := s.cache.FetchJSON(ctx, key, &snapshot, loader); err == nil {
			if snapshot.ByCategory == nil {
				snapshot.ByCategory = map[string]int{}
			}
			return snapshot
		}
		s.logger.Error("workout stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return StatsSnapshot{ByCategory: map[string]int{}}
	}

	snapshot, err := s.repo.Stats(ctx, trainerID, tz)
	if err != nil {
		s.logger.Error("workout stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return StatsSnapshot{ByCategory: map[string]int{}}
	}
	return snapshot
}

func (s *Service) bumpStats(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump stats cache", slog.Any("error", err))
	}
}

func validCategory(c Category) bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}
