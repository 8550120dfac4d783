package keygen

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGUID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		guid := NewGUID("CP")
		require.True(t, strings.HasPrefix(guid, "CP"), "guid %q should keep its prefix", guid)

		raw, err := base58.Decode(strings.TrimPrefix(guid, "CP"))
		require.NoError(t, err)
		assert.Len(t, raw, 16)

		_, dup := seen[guid]
		require.False(t, dup, "duplicate guid %q", guid)
		seen[guid] = struct{}{}
	}
}

func TestNewAPIKey(t *testing.T) {
	first, err := NewAPIKey()
	require.NoError(t, err)
	second, err := NewAPIKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	raw, err := base58.Decode(first)
	require.NoError(t, err)
	assert.Len(t, raw, APIKeySize)
}

func TestDefaultGenerator(t *testing.T) {
	assert.True(t, strings.HasPrefix(Default.GUID("XX"), "XX"))

	key, err := Default.APIKey()
	assert.NoError(t, err)
	assert.NotEmpty(t, key)
}
