package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("<?php echo 1;"))
	b := ContentHash([]byte("<?php echo 1;"))
	c := ContentHash([]byte("<?php echo 2;"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := openTestCache(t)
	entry, ok, err := c.Get("src/Foo.php")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestPutThenGetRoundtrips(t *testing.T) {
	c := openTestCache(t)
	original := &Entry{
		Hash: ContentHash([]byte("<?php class Foo {}")),
		Issues: []IssueRecord{
			{Severity: "warning", Code: "mixed-assignment", StartOffset: 10, EndOffset: 20, Message: "mixed value"},
		},
		Symbols: []string{"Foo", "Bar"},
	}
	require.NoError(t, c.Put("src/Foo.php", original))

	got, ok, err := c.Get("src/Foo.php")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original.Hash, got.Hash)
	assert.Equal(t, original.Issues, got.Issues)
	assert.Equal(t, original.Symbols, got.Symbols)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("src/Foo.php", &Entry{Hash: 1, Symbols: []string{"Foo"}}))
	require.NoError(t, c.Put("src/Foo.php", &Entry{Hash: 2, Symbols: []string{"Foo", "Bar"}}))

	got, ok, err := c.Get("src/Foo.php")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Hash)
	assert.Equal(t, []string{"Foo", "Bar"}, got.Symbols)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("src/Foo.php", &Entry{Hash: 1}))
	require.NoError(t, c.Invalidate("src/Foo.php"))

	_, ok, err := c.Get("src/Foo.php")
	require.NoError(t, err)
	assert.False(t, ok)
}
