package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<?php\n"), 0o644))
	return path
}

func TestSelectFilesFiltersBySourceExtension(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/Checkout.php")
	writeFixture(t, root, "src/readme.txt")

	files, err := selectFiles([]string{root}, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "Checkout.php")
}

func TestSelectFilesHonorsIncludeGlob(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/Checkout.php")
	writeFixture(t, root, "tests/CheckoutTest.php")

	files, err := selectFiles([]string{root}, []string{"**/src/**"}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "Checkout.php")
	assert.NotContains(t, files[0], "CheckoutTest")
}

func TestSelectFilesExcludeWinsOverInclude(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/Checkout.php")
	writeFixture(t, root, "src/vendor/Lib.php")

	files, err := selectFiles([]string{root}, []string{"**/*.php"}, []string{"**/vendor/**"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "Checkout.php")
}

func TestSelectFilesBasenameFallbackForSeparatorlessPattern(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/CheckoutTest.php")
	writeFixture(t, root, "src/Checkout.php")

	files, err := selectFiles([]string{root}, nil, []string{"*Test.php"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "Checkout.php")
	assert.NotContains(t, files[0], "CheckoutTest")
}

func TestSelectFilesDeduplicatesOverlappingRoots(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/Checkout.php")

	files, err := selectFiles([]string{root, filepath.Join(root, "src")}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
