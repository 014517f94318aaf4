package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationComputesPages(t *testing.T) {
	p := NewPagination(2, 20, 45)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 20, p.Offset())
	require.True(t, p.HasPrev())
	require.True(t, p.HasNext())
}

func TestNewPaginationClampsPageAndPerPage(t *testing.T) {
	p := NewPagination(0, 0, 5)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPerPage, p.PerPage)
	require.Zero(t, p.Offset())

	// Pages past the end stay as requested; the fetch simply comes back empty.
	p = NewPagination(9, 20, 45)
	require.Equal(t, 9, p.Page)
	require.False(t, p.HasNext())
}

func TestPrevNextPageClamp(t *testing.T) {
	p := NewPagination(1, 20, 100)
	require.Equal(t, 1, p.PrevPage())
	require.Equal(t, 2, p.NextPage())

	p = NewPagination(5, 20, 100)
	require.Equal(t, 4, p.PrevPage())
	require.Equal(t, 5, p.NextPage())
}
