package repair

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsleuth/sqlite-doctor/check"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO users (name) VALUES ('alice'), ('bob');
		DELETE FROM users WHERE name = 'bob';
	`)
	require.NoError(t, err)
	return path
}

func TestRunMissingFile(t *testing.T) {
	res := Run(filepath.Join(t.TempDir(), "missing.db"), t.TempDir())
	assert.False(t, res.Success)
	assert.Equal(t, "Database file does not exist", res.Message)
	assert.Empty(t, res.BackupPath)
}

func TestRunHealthyDatabase(t *testing.T) {
	path := newTestDB(t)
	backupDir := filepath.Join(t.TempDir(), "backups")

	res := Run(path, backupDir)
	require.True(t, res.Success, "repair failed: %s", res.Message)

	// Backup is taken before the rebuild and reported in the result.
	require.NotEmpty(t, res.BackupPath)
	_, err := os.Stat(res.BackupPath)
	assert.NoError(t, err)

	assert.True(t, check.Integrity(path).Valid)
}

func TestRunProceedsWhenBackupFails(t *testing.T) {
	path := newTestDB(t)

	// A regular file where the backup directory should go makes the backup
	// step fail; the rebuild must go ahead regardless.
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	res := Run(path, filepath.Join(blocked, "backups"))
	assert.True(t, res.Success, "repair blocked by backup failure: %s", res.Message)
	assert.Empty(t, res.BackupPath)
}
