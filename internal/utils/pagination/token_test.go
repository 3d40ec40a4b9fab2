package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTimeIDToken(t *testing.T) {
	at := time.Date(2025, 1, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeTimeIDToken(at, "rec-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeTimeIDToken(token)
	require.NoError(t, err)
	assert.True(t, at.Equal(decodedAt), "Time should match after decode")
	assert.Equal(t, "rec-42", decodedID)
}

func TestEncodeTimeIDTokenNormalizesZone(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	at := time.Date(2025, 1, 15, 8, 0, 0, 0, loc)

	decodedAt, _, err := DecodeTimeIDToken(EncodeTimeIDToken(at, "x"))
	require.NoError(t, err)
	assert.True(t, at.Equal(decodedAt))
	assert.Equal(t, time.UTC, decodedAt.Location())
}

func TestDecodeTimeIDTokenInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{"not base64", "not-base64!@#"},
		{"single field", EncodeMultiFieldToken("2025-01-15T00:00:00Z")},
		{"empty id", EncodeMultiFieldToken("2025-01-15T00:00:00Z", "")},
		{"bad time", EncodeMultiFieldToken("yesterday", "rec-1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeTimeIDToken(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	parts, err := DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}
