package roster

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

type memoryRosterRepo struct {
	members     map[int64]Member
	assignments map[int64]map[int64]time.Time // trainerID -> memberID -> assignedAt
}

func newMemoryRosterRepo(members ...Member) *memoryRosterRepo {
	repo := &memoryRosterRepo{members: map[int64]Member{}, assignments: map[int64]map[int64]time.Time{}}
	for _, m := range members {
		repo.members[m.ID] = m
	}
	return repo
}

func (m *memoryRosterRepo) assigned(trainerID int64, criteria Criteria) []Member {
	var out []Member
	for memberID, assignedAt := range m.assignments[trainerID] {
		member := m.members[memberID]
		member.AssignedAt = assignedAt
		if criteria.Search != "" {
			needle := strings.ToLower(criteria.Search)
			if !strings.Contains(strings.ToLower(member.Name), needle) &&
				!strings.Contains(strings.ToLower(member.Email), needle) {
				continue
			}
		}
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryRosterRepo) ListAssigned(_ context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Member, error) {
	all := m.assigned(trainerID, criteria)
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

func (m *memoryRosterRepo) CountAssigned(_ context.Context, trainerID int64, criteria Criteria) (int, error) {
	return len(m.assigned(trainerID, criteria)), nil
}

func (m *memoryRosterRepo) SearchUnassigned(_ context.Context, trainerID int64, term string, limit int) ([]Member, error) {
	var out []Member
	for _, member := range m.members {
		if _, ok := m.assignments[trainerID][member.ID]; ok {
			continue
		}
		needle := strings.ToLower(term)
		if !strings.Contains(strings.ToLower(member.Name), needle) &&
			!strings.Contains(strings.ToLower(member.Email), needle) {
			continue
		}
		out = append(out, member)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryRosterRepo) Assign(_ context.Context, trainerID, memberID int64) error {
	if _, ok := m.members[memberID]; !ok {
		return shared.ErrNotFound
	}
	if m.assignments[trainerID] == nil {
		m.assignments[trainerID] = map[int64]time.Time{}
	}
	if _, ok := m.assignments[trainerID][memberID]; ok {
		return ErrAlreadyAssigned
	}
	m.assignments[trainerID][memberID] = time.Now()
	return nil
}

func (m *memoryRosterRepo) Unassign(_ context.Context, trainerID, memberID int64) error {
	if _, ok := m.assignments[trainerID][memberID]; !ok {
		return shared.ErrNotFound
	}
	delete(m.assignments[trainerID], memberID)
	return nil
}

func (m *memoryRosterRepo) GetDetail(_ context.Context, trainerID, memberID int64) (*Detail, error) {
	if _, ok := m.assignments[trainerID][memberID]; !ok {
		return nil, shared.ErrNotFound
	}
	return &Detail{Member: m.members[memberID]}, nil
}

func (m *memoryRosterRepo) AssignedOptions(_ context.Context, trainerID int64) ([]Member, error) {
	return m.assigned(trainerID, Criteria{}), nil
}

func newTestService(repo MemberRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAssignIsIdempotentError(t *testing.T) {
	repo := newMemoryRosterRepo(Member{ID: 1, Name: "Ada", Email: "ada@example.com"})
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, 10, 1))
	require.ErrorIs(t, svc.Assign(ctx, 10, 1), ErrAlreadyAssigned)
	require.ErrorIs(t, svc.Assign(ctx, 10, 99), shared.ErrNotFound)
}

func TestUnassignRequiresExistingLink(t *testing.T) {
	repo := newMemoryRosterRepo(Member{ID: 1, Name: "Ada", Email: "ada@example.com"})
	svc := newTestService(repo)
	ctx := context.Background()

	require.ErrorIs(t, svc.Unassign(ctx, 10, 1), shared.ErrNotFound)
	require.NoError(t, svc.Assign(ctx, 10, 1))
	require.NoError(t, svc.Unassign(ctx, 10, 1))
}

func TestListSearchesNameAndEmail(t *testing.T) {
	repo := newMemoryRosterRepo(
		Member{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"},
		Member{ID: 2, Name: "Grace Hopper", Email: "grace@example.com"},
		Member{ID: 3, Name: "Alan Turing", Email: "alan@example.com"},
	)
	svc := newTestService(repo)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, svc.Assign(ctx, 10, id))
	}

	page := svc.List(ctx, 10, Criteria{Search: "grace"}, 1)
	require.Len(t, page.Members, 1)
	require.Equal(t, "Grace Hopper", page.Members[0].Name)

	page = svc.List(ctx, 10, Criteria{Search: "example.com"}, 1)
	require.Len(t, page.Members, 3)

	// Another trainer sees an empty roster.
	page = svc.List(ctx, 11, Criteria{}, 1)
	require.Empty(t, page.Members)
}

func TestSearchUnassignedExcludesRoster(t *testing.T) {
	repo := newMemoryRosterRepo(
		Member{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"},
		Member{ID: 2, Name: "Adam West", Email: "adam@example.com"},
	)
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, 10, 1))

	found, err := svc.SearchUnassigned(ctx, 10, "ada")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, int64(2), found[0].ID)

	// Mixed-case input matches the same member.
	found, err = svc.SearchUnassigned(ctx, 10, "Adam")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, int64(2), found[0].ID)
}
