package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Request-Id", "abc-123")
	body := []byte(`{"hotels":[]}`)

	enc, err := encodePayload(http.StatusOK, header, body)
	require.NoError(t, err)

	status, gotHeader, gotBody, ok := decodePayload(enc)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "abc-123", gotHeader.Get("X-Request-Id"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	overlong := make([]byte, 8)
	overlong[7] = 0xFF // header length beyond the buffer
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, []byte("short"), overlong} {
		_, _, _, ok := decodePayload(bs)
		assert.Falsef(t, ok, "%v", bs)
	}
}
