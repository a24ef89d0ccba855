package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCopiesByteForByte(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.db")
	content := []byte("SQLite format 3\x00 pretend database contents")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	res := Create(src, filepath.Join(dir, "backups"))
	require.True(t, res.Success, "backup failed: %s", res.Err)
	require.NotEmpty(t, res.Path)

	copied, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, content, copied)
}

func TestCreateBackupName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.db")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	res := Create(src, filepath.Join(dir, "backups"))
	require.True(t, res.Success)

	base := filepath.Base(res.Path)
	require.True(t, strings.HasPrefix(base, "app.db.backup."), "unexpected name %s", base)

	stamp := strings.TrimPrefix(base, "app.db.backup.")
	assert.NotContains(t, stamp, ":")
	assert.NotContains(t, stamp, ".")
}

func TestCreateMissingSource(t *testing.T) {
	res := Create(filepath.Join(t.TempDir(), "missing.db"), t.TempDir())
	assert.False(t, res.Success)
	assert.Empty(t, res.Path)
	assert.Equal(t, "database file does not exist", res.Err)
}

func TestCreateMakesDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.db")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	nested := filepath.Join(dir, "a", "b", "backups")
	res := Create(src, nested)
	require.True(t, res.Success, "backup failed: %s", res.Err)
	assert.Equal(t, nested, filepath.Dir(res.Path))
}

func TestTimestampFormat(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 30, 45, 123456000, time.UTC)
	assert.Equal(t, "2026-08-31T12-30-45-123456", timestamp(at))
}
