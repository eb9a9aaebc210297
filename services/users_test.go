package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kobaiko/carbculator/models"
)

func TestResolveRange(t *testing.T) {
	u := &models.User{Timezone: "America/New_York"}
	loc := u.Location()
	// 02:00 UTC on Mar 2 is still Mar 1 in New York.
	now := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)

	from, to, err := resolveRange(u, "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, loc), to)

	from, to, err = resolveRange(u, "2024-02-01", "2024-02-29", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), to)

	from, to, err = resolveRange(u, "2024-02-10", "", now)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestResolveRangeErrors(t *testing.T) {
	u := &models.User{}
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	for _, tc := range [][2]string{
		{"2024-03-05", "2024-03-01"},
		{"03/01/2024", ""},
		{"2020-01-01", "2024-01-01"},
	} {
		_, _, err := resolveRange(u, tc[0], tc[1], now)
		assert.ErrorIs(t, err, ErrInvalidInput, "%v", tc)
	}
}
