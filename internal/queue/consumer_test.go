package queue

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLogLine(t *testing.T) {
	ev := BookingConfirmedEvent{
		BookingID:   12,
		UserID:      3,
		RoomID:      44,
		HotelID:     9,
		CheckIn:     "2026-09-10",
		CheckOut:    "2026-09-12",
		AmountCents: 20000,
		OccurredAt:  "2026-09-01T10:00:00Z",
	}
	line := FormatLogLine(ev)

	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"), "single line per event")
	assert.Contains(t, line, "booking_id=12")
	assert.Contains(t, line, "user_id=3")
	assert.Contains(t, line, "hotel_id=9")
	assert.Contains(t, line, "stay=2026-09-10..2026-09-12")
	assert.Contains(t, line, "amount=20000 cents")
	assert.Contains(t, line, "[2026-09-01T10:00:00Z]")
}

func TestEventJSONFieldNames(t *testing.T) {
	// Field names are the wire contract between publisher and consumer.
	b, err := json.Marshal(BookingConfirmedEvent{BookingID: 1})
	require.NoError(t, err)
	for _, key := range []string{"booking_id", "user_id", "room_id", "hotel_id", "check_in", "check_out", "amount_cents", "occurred_at"} {
		assert.Contains(t, string(b), `"`+key+`"`)
	}
}
