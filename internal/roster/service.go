package roster

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// ErrAlreadyAssigned is returned when a member is already on the roster.
var ErrAlreadyAssigned = errors.New("roster: member already assigned")

// MemberRepository defines the persistence operations the service relies on.
type MemberRepository interface {
	ListAssigned(ctx context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Member, error)
	CountAssigned(ctx context.Context, trainerID int64, criteria Criteria) (int, error)
	SearchUnassigned(ctx context.Context, trainerID int64, term string, limit int) ([]Member, error)
	Assign(ctx context.Context, trainerID, memberID int64) error
	Unassign(ctx context.Context, trainerID, memberID int64) error
	GetDetail(ctx context.Context, trainerID, memberID int64) (*Detail, error)
	AssignedOptions(ctx context.Context, trainerID int64) ([]Member, error)
}

// Service exposes roster use cases.
type Service struct {
	repo   MemberRepository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo MemberRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ListPage is the rendered result of a filtered, paginated roster request.
type ListPage struct {
	Members    []Member
	Pagination shared.Pagination
}

// List fetches one page of the roster plus the total count, sharing one
// predicate set between the two queries. Data-access failures degrade to an
// empty page.
func (s *Service) List(ctx context.Context, trainerID int64, criteria Criteria, pageNumber int) ListPage {
	var (
		members []Member
		total   int
	)
	probe := shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.repo.ListAssigned(gctx, trainerID, criteria, probe)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountAssigned(gctx, trainerID, criteria)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("list roster", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return ListPage{Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, 0)}
	}

	return ListPage{Members: members, Pagination: shared.NewPagination(pageNumber, shared.DefaultPerPage, total)}
}

// SearchUnassigned finds members available for assignment.
func (s *Service) SearchUnassigned(ctx context.Context, trainerID int64, term string) ([]Member, error) {
	return s.repo.SearchUnassigned(ctx, trainerID, term, 10)
}

// Assign adds a member to the trainer's roster.
func (s *Service) Assign(ctx context.Context, trainerID, memberID int64) error {
	return s.repo.Assign(ctx, trainerID, memberID)
}

// Unassign removes a member from the trainer's roster.
func (s *Service) Unassign(ctx context.Context, trainerID, memberID int64) error {
	return s.repo.Unassign(ctx, trainerID, memberID)
}

// Detail fetches an assigned member and their engagement counters.
func (s *Service) Detail(ctx context.Context, trainerID, memberID int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, trainerID, memberID)
}

// AssignedOptions lists the roster as id/name pairs for form selects.
func (s *Service) AssignedOptions(ctx context.Context, trainerID int64) ([]Member, error) {
	return s.repo.AssignedOptions(ctx, trainerID)
}
