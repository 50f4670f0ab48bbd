package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	at := time.Date(2025, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeCursor(at, "f-123")
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "/")

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, at.Equal(cursor.At))
	assert.Equal(t, "f-123", cursor.ID)
}

func TestEncodeCursor_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2025, 5, 15, 20, 0, 0, 0, loc)

	cursor, err := DecodeCursor(EncodeCursor(at, "v1"))
	require.NoError(t, err)
	assert.True(t, at.Equal(cursor.At))
	assert.Equal(t, time.UTC, cursor.At.Location())
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWEtY3Vyc29y", EncodeCursor(time.Now(), "")} {
		_, err := DecodeCursor(token)
		assert.Error(t, err, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 5, NormalizeLimit(5))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
}
