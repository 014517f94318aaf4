package activity

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/elitefit-gym/trainer-portal/internal/platform/cache"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// ListRepository defines the persistence operations the service relies on.
type ListRepository interface {
	Insert(ctx context.Context, input RecordInput) (int64, error)
	List(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Entry, error)
	Count(ctx context.Context, trainerID int64, criteria Criteria) (int, error)
	Stats(ctx context.Context, trainerID int64, tz string) (StatsSnapshot, error)
}

// ErrInvalidCategory rejects recording with an unknown category.
var ErrInvalidCategory = errors.New("activity: invalid category")

// Service exposes the activity log use cases.
type Service struct {
	repo   ListRepository
	cache  *cache.StatsCache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo ListRepository, statsCache *cache.StatsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: statsCache, logger: logger}
}

// ListPage is the rendered result of a filtered, paginated list request.
type ListPage struct {
	Entries    []Entry
	Pagination shared.Pagination
}

// Record appends an entry to the trainer's log and invalidates cached stats.
func (s *Service) Record(ctx context.Context, input RecordInput) (int64, error) {
	if !validCategory(input.Category) {
		return 0, ErrInvalidCategory
	}
	id, err := s.repo.Insert(ctx, input)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump stats cache", slog.Any("error", err))
	}
	return id, nil
}

// List fetches one page of entries plus the total count. The page fetch and
// the count share one predicate set and run in parallel. Data-access failures
// degrade to an empty page: the caller always gets something to render.
func (s *Service) List(ctx context.Context, trainerID int64, criteria Criteria, pageNumber int) ListPage {
	var (
		entries []Entry
		total   int
	)
	probe := shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.List(gctx, trainerID, criteria, probe)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, trainerID, criteria)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("list activity", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return ListPage{Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)}
	}

	return ListPage{
		Entries:    entries,
		Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, total),
	}
}

// Stats returns the trainer's aggregate snapshot, cache-aware. The active list
// filter never influences the snapshot. Any failure yields a zero-filled
// snapshot instead of an error.
func (s *Service) Stats(ctx context.Context, trainerID int64, tz string) StatsSnapshot {
	loader := func(ctx context.Context) (any, error) {
		return s.repo.Stats(ctx, trainerID, tz)
	}

	key, err := s.cache.BuildKey(ctx, "stats", "activity", cache.FormatID(trainerID), tz)
	if err != nil {
		s.logger.Warn("build stats key", slog.Any("error", err))
		return s.loadStatsDirect(ctx, trainerID, tz)
	}

	var snapshot StatsSnapshot
	if err := s.cache.FetchJSON(ctx, key, &snapshot, loader); err != nil {
		s.logger.Error("activity stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return StatsSnapshot{ByCategory: map[string]int{}}
	}
	if snapshot.ByCategory == nil {
		snapshot.ByCategory = map[string]int{}
	}
	return snapshot
}

func (s *Service) loadStatsDirect(ctx context.Context, trainerID int64, tz string) StatsSnapshot {
	snapshot, err := s.repo.Stats(ctx, trainerID, tz)
	if err != nil {
		s.logger.Error("activity stats", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return StatsSnapshot{ByCategory: map[string]int{}}
	}
	return snapshot
}

func validCategory(c Category) bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}
