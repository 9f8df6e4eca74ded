package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong-pass"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "s3cret-pass"))
}

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		plain string
		ok    bool
	}{
		{"abcd1234", true},
		{"longenough1", true},
		{"P4ssword!", true},
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
		{"", false},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.ok, StrongPassword(tt.plain), "StrongPassword(%q)", tt.plain)
	}
}
