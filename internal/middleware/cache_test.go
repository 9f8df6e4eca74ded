package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCached(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Total-Count", "42")
	body := []byte(`{"items":[1,2,3]}`)

	raw, err := encodeCached(http.StatusOK, header, body)
	require.NoError(t, err)

	status, gotHeader, gotBody, ok := decodeCached(raw)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "42", gotHeader.Get("X-Total-Count"))
	assert.Equal(t, body, gotBody)
}

func TestDecodeCachedRejectsGarbage(t *testing.T) {
	for _, raw := range [][]byte{
		nil,
		{0x00},
		{0xff, 0xff, 0xff, 0xff}, // meta length beyond payload
		[]byte("plain old junk that is not an envelope"),
	} {
		_, _, _, ok := decodeCached(raw)
		assert.False(t, ok, "input %q", raw)
	}
}
