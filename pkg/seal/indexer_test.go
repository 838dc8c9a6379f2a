package seal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexerRejectsShortKey(t *testing.T) {
	_, err := NewIndexer([]byte("short"))
	assert.Error(t, err)
}

func TestIndexerDigestIsDeterministic(t *testing.T) {
	key, err := RandomBytes(32)
	require.NoError(t, err)
	indexer, err := NewIndexer(key)
	require.NoError(t, err)

	first := indexer.Digest("col_1", "email", "alice@example.com")
	second := indexer.Digest("col_1", "email", "alice@example.com")
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestIndexerDigestBindsCollectionAndField(t *testing.T) {
	key, err := RandomBytes(32)
	require.NoError(t, err)
	indexer, err := NewIndexer(key)
	require.NoError(t, err)

	base := indexer.Digest("col_1", "email", "alice@example.com")
	assert.NotEqual(t, base, indexer.Digest("col_2", "email", "alice@example.com"))
	assert.NotEqual(t, base, indexer.Digest("col_1", "backup_email", "alice@example.com"))
	assert.NotEqual(t, base, indexer.Digest("col_1", "email", "bob@example.com"))
}

func TestIndexerDigestDiffersByKey(t *testing.T) {
	keyA, err := RandomBytes(32)
	require.NoError(t, err)
	keyB, err := RandomBytes(32)
	require.NoError(t, err)

	indexerA, err := NewIndexer(keyA)
	require.NoError(t, err)
	indexerB, err := NewIndexer(keyB)
	require.NoError(t, err)

	assert.NotEqual(t,
		indexerA.Digest("col_1", "email", "alice@example.com"),
		indexerB.Digest("col_1", "email", "alice@example.com"),
	)
}
