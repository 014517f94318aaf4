package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterNumbersPlaceholdersSequentially(t *testing.T) {
	f := NewFilter("w.trainer_id", 7).
		EqualsIf("w.category", "strength").
		EqualsIfID("w.member_id", 42)

	require.Equal(t, " WHERE w.trainer_id = $1 AND w.category = $2 AND w.member_id = $3", f.Where())
	require.Equal(t, []any{int64(7), "strength", int64(42)}, f.Args())
}

func TestFilterSkipsAbsentValues(t *testing.T) {
	f := NewFilter("trainer_id", 1).
		EqualsIf("category", "").
		EqualsIfID("member_id", 0).
		Search("", "title").
		OnDay("created_at", "")

	require.Equal(t, " WHERE trainer_id = $1", f.Where())
	require.Len(t, f.Args(), 1)
}

func TestFilterSearchSpansColumnsWithOnePlaceholder(t *testing.T) {
	f := NewFilter("trainer_id", 3).Search("Bench Press", "w.title", "w.description")

	require.Equal(t,
		" WHERE trainer_id = $1 AND (LOWER(w.title) LIKE $2 OR LOWER(w.description) LIKE $2)",
		f.Where())
	require.Equal(t, "%bench press%", f.Args()[1])
}

func TestFilterOnDayCastsBothSides(t *testing.T) {
	f := NewFilter("trainer_id", 3).OnDay("a.created_at", "2026-08-31")

	require.Contains(t, f.Where(), "a.created_at::date = $2::date")
	require.Equal(t, "2026-08-31", f.Args()[1])
}

func TestFilterWithPageAppendsLimitOffset(t *testing.T) {
	f := NewFilter("trainer_id", 3).EqualsIf("category", "cardio")

	fragment, args := f.WithPage(NewPagination(3, 20, 100))
	require.Equal(t, " LIMIT $3 OFFSET $4", fragment)
	require.Equal(t, []any{int64(3), "cardio", 20, 40}, args)

	// WithPage must not mutate the filter itself; Count reuses the same args.
	require.Len(t, f.Args(), 2)
}
