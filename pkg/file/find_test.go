package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindPOFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "addons", "sale", "i18n", "fr.po"))
	touch(t, filepath.Join(root, "addons", "stock", "i18n", "fr.PO"))
	touch(t, filepath.Join(root, "addons", "sale", "i18n", "fr.mo"))
	touch(t, filepath.Join(root, "readme.md"))
	touch(t, filepath.Join(root, ".git", "objects", "fake.po"))

	files, err := FindPOFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "addons", "sale", "i18n", "fr.po"), files[0])
	assert.Equal(t, filepath.Join(root, "addons", "stock", "i18n", "fr.PO"), files[1])
}

func TestFindPOFilesMissingRoot(t *testing.T) {
	_, err := FindPOFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFindChangedSince(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old.po")
	recent := filepath.Join(root, "recent.po")
	other := filepath.Join(root, "recent.txt")
	touch(t, old)
	touch(t, recent)
	touch(t, other)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	cutoff := time.Now().Add(-time.Minute)
	changed, err := FindChangedSince(root, cutoff, ".po")
	require.NoError(t, err)
	assert.Equal(t, []string{recent}, changed)

	// empty extension matches everything
	changed, err = FindChangedSince(root, cutoff, "")
	require.NoError(t, err)
	assert.Equal(t, []string{recent, other}, changed)

	changed, err = FindChangedSince(root, time.Now().Add(time.Minute), ".po")
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, filepath.Join("i18n", "fr.mo"), ReplaceExt(filepath.Join("i18n", "fr.po"), ".mo"))
	assert.Equal(t, filepath.Join("i18n", "fr.mo"), ReplaceExt(filepath.Join("i18n", "fr.po"), "mo"))
	assert.Equal(t, "noext.po", ReplaceExt("noext", "po"))
	assert.Equal(t, filepath.Join("a", ".hidden.po"), ReplaceExt(filepath.Join("a", ".hidden"), "po"))
	assert.Empty(t, ReplaceExt("", "po"))
}
