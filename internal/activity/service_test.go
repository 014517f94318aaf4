package activity

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

type memoryLogRepo struct {
	entries   map[int64]Entry
	nextID    int64
	failList  bool
	failCount bool
	failStats bool
}

func newMemoryLogRepo() *memoryLogRepo {
	return &memoryLogRepo{entries: map[int64]Entry{}, nextID: 1}
}

func (m *memoryLogRepo) Insert(_ context.Context, input RecordInput) (int64, error) {
	entry := Entry{
		ID:        m.nextID,
		TrainerID: input.TrainerID,
		MemberID:  input.MemberID,
		Category:  input.Category,
		Title:     input.Title,
		Note:      input.Note,
		CreatedAt: time.Now(),
	}
	m.entries[entry.ID] = entry
	m.nextID++
	return entry.ID, nil
}

func (m *memoryLogRepo) matching(trainerID int64, criteria Criteria) []Entry {
	var out []Entry
	for _, entry := range m.entries {
		if entry.TrainerID != trainerID {
			continue
		}
		if criteria.Category != "" && entry.Category != criteria.Category {
			continue
		}
		if criteria.MemberID != 0 && entry.MemberID != criteria.MemberID {
			continue
		}
		if criteria.Day != "" && entry.CreatedAt.Format("2006-01-02") != criteria.Day {
			continue
		}
		if criteria.Search != "" {
			needle := strings.ToLower(criteria.Search)
			if !strings.Contains(strings.ToLower(entry.Title), needle) &&
				!strings.Contains(strings.ToLower(entry.Note), needle) {
				continue
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryLogRepo) List(_ context.Context, trainerID int64, criteria Criteria, page shared.Pagination) ([]Entry, error) {
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

func (m *memoryLogRepo) Count(_ context.Context, trainerID int64, criteria Criteria) (int, error) {
	if m.failCount {
		return 0, errors.New("boom")
	}
	return len(m.matching(trainerID, criteria)), nil
}

func (m *memoryLogRepo) Stats(_ context.Context, trainerID int64, _ string) (StatsSnapshot, error) {
	if m.failStats {
		return StatsSnapshot{}, errors.New("boom")
	}
	snapshot := StatsSnapshot{ByCategory: map[string]int{}}
	perMember := map[int64]int{}
	for _, entry := range m.entries {
		if entry.TrainerID != trainerID {
			continue
		}
		snapshot.Total++
		snapshot.ByCategory[string(entry.Category)]++
		if entry.MemberID != 0 {
			perMember[entry.MemberID]++
		}
	}
	// Tie-break: highest count first, then lowest member id.
	for memberID, count := range perMember {
		if snapshot.TopMember == nil ||
			count > snapshot.TopMember.Count ||
			(count == snapshot.TopMember.Count && memberID < snapshot.TopMember.MemberID) {
			snapshot.TopMember = &TopMember{MemberID: memberID, Count: count}
		}
	}
	return snapshot, nil
}

func newTestService(repo ListRepository) *Service {
	return NewService(repo, cache.NewStatsCache(nil, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecordRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(newMemoryLogRepo())

	_, err := svc.Record(context.Background(), RecordInput{TrainerID: 1, Category: "payment", Title: "X"})
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestListAndCountShareFilter(t *testing.T) {
	repo := newMemoryLogRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Record(ctx, RecordInput{TrainerID: 1, MemberID: 9, Category: CategorySession, Title: "Morning session"})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, RecordInput{TrainerID: 1, Category: CategoryNote, Title: "Shoulder caution", Note: "rotator cuff"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordInput{TrainerID: 2, Category: CategorySession, Title: "Someone else"})
	require.NoError(t, err)

	page := svc.List(ctx, 1, Criteria{Category: CategorySession}, 1)
	require.Len(t, page.Entries, 4)
	require.Equal(t, 4, page.Pagination.Total)

	page = svc.List(ctx, 1, Criteria{Search: "rotator"}, 1)
	require.Len(t, page.Entries, 1)
	require.Equal(t, 1, page.Pagination.Total)
}

func TestListOutOfRangePageIsEmpty(t *testing.T) {
	repo := newMemoryLogRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Record(ctx, RecordInput{TrainerID: 1, Category: CategoryNote, Title: "Note"})
		require.NoError(t, err)
	}

	page := svc.List(ctx, 1, Criteria{}, 2)
	require.Len(t, page.Entries, 5)
	require.Equal(t, 2, page.Pagination.TotalPages)

	page = svc.List(ctx, 1, Criteria{}, 7)
	require.Empty(t, page.Entries)
	require.Equal(t, 25, page.Pagination.Total)

	page = svc.List(ctx, 1, Criteria{}, -3)
	require.Equal(t, 1, page.Pagination.Page)
	require.Len(t, page.Entries, 20)
}

func TestListDegradesOnRepositoryFailure(t *testing.T) {
	repo := newMemoryLogRepo()
	repo.failList = true
	svc := newTestService(repo)

	page := svc.List(context.Background(), 1, Criteria{}, 1)
	require.Empty(t, page.Entries)
	require.Zero(t, page.Pagination.Total)
}

func TestStatsIgnoresListFilterAndPicksTopMember(t *testing.T) {
	repo := newMemoryLogRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, RecordInput{TrainerID: 1, MemberID: 5, Category: CategorySession, Title: "S"})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, RecordInput{TrainerID: 1, MemberID: 8, Category: CategoryNote, Title: "N"})
	require.NoError(t, err)

	snapshot := svc.Stats(ctx, 1, "UTC")
	require.Equal(t, 4, snapshot.Total)
	require.Equal(t, 3, snapshot.ByCategory["session"])
	require.NotNil(t, snapshot.TopMember)
	require.Equal(t, int64(5), snapshot.TopMember.MemberID)
}

func TestStatsDegradesToZeroSnapshot(t *testing.T) {
	repo := newMemoryLogRepo()
	repo.failStats = true
	svc := newTestService(repo)

	snapshot := svc.Stats(context.Background(), 1, "UTC")
	require.Zero(t, snapshot.Total)
	require.NotNil(t, snapshot.ByCategory)
	require.Nil(t, snapshot.TopMember)
}
