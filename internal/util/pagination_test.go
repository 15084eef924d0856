package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(1, 10)
	require.Equal(t, 0, offset)
	require.Equal(t, 10, limit)

	offset, limit = Calculate(3, 20)
	require.Equal(t, 40, offset)
	require.Equal(t, 20, limit)

	// Bad inputs fall back to the defaults.
	offset, limit = Calculate(0, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, limit)

	_, limit = Calculate(1, 1000)
	require.Equal(t, DefaultPageSize, limit)
}

func TestParseIntDefault(t *testing.T) {
	require.Equal(t, 5, ParseIntDefault("5", 1))
	require.Equal(t, 1, ParseIntDefault("", 1))
	require.Equal(t, 1, ParseIntDefault("abc", 1))
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(2, 10, 35)
	require.Equal(t, 2, m.CurrentPage)
	require.Equal(t, int64(4), m.TotalPages)
	require.Equal(t, int64(35), m.TotalItems)
	require.True(t, m.HasNext)
	require.True(t, m.HasPrev)

	m = NewMeta(1, 10, 5)
	require.Equal(t, int64(1), m.TotalPages)
	require.False(t, m.HasNext)
	require.False(t, m.HasPrev)

	m = NewMeta(1, 10, 0)
	require.Equal(t, int64(0), m.TotalPages)
	require.False(t, m.HasNext)
}
