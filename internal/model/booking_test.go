package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingPending, BookingPending, false},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("Unknown"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("pending")) // case sensitive
}

func TestBlocks(t *testing.T) {
	assert.True(t, Blocks(BookingPending))
	assert.True(t, Blocks(BookingConfirmed))
	assert.False(t, Blocks(BookingCancelled))
	assert.False(t, Blocks(BookingCompleted))
}

func TestOverlaps(t *testing.T) {
	bIn, bOut := day("2026-09-10"), day("2026-09-15")

	// Fully inside, fully covering, partial overlaps.
	assert.True(t, Overlaps(day("2026-09-11"), day("2026-09-12"), bIn, bOut))
	assert.True(t, Overlaps(day("2026-09-01"), day("2026-09-30"), bIn, bOut))
	assert.True(t, Overlaps(day("2026-09-08"), day("2026-09-10"), bIn, bOut))
	assert.True(t, Overlaps(day("2026-09-15"), day("2026-09-20"), bIn, bOut))

	// Inclusive bounds: a stay ending on the existing check-in day, or
	// starting on the existing check-out day, still conflicts.
	assert.True(t, Overlaps(day("2026-09-05"), day("2026-09-10"), bIn, bOut))
	assert.True(t, Overlaps(day("2026-09-15"), day("2026-09-18"), bIn, bOut))

	// Clear of the booking on either side.
	assert.False(t, Overlaps(day("2026-09-01"), day("2026-09-09"), bIn, bOut))
	assert.False(t, Overlaps(day("2026-09-16"), day("2026-09-20"), bIn, bOut))
}

func TestValidStayRange(t *testing.T) {
	assert.True(t, ValidStayRange(day("2026-09-10"), day("2026-09-11")))
	assert.False(t, ValidStayRange(day("2026-09-10"), day("2026-09-10")))
	assert.False(t, ValidStayRange(day("2026-09-11"), day("2026-09-10")))
}

func TestCancellationOpen(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, CancellationOpen(now.Add(48*time.Hour), now))
	require.True(t, CancellationOpen(now.Add(24*time.Hour+time.Minute), now))

	// Exactly 24h away or closer is too late for a non-admin.
	require.False(t, CancellationOpen(now.Add(24*time.Hour), now))
	require.False(t, CancellationOpen(now.Add(10*time.Hour), now))
	require.False(t, CancellationOpen(now.Add(-time.Hour), now))
}
