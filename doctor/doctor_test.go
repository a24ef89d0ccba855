package doctor

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsleuth/sqlite-doctor/config"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func testConfig(t *testing.T, dbPath string) config.Config {
	t.Helper()
	return config.Config{
		DBPath:      dbPath,
		BackupDir:   filepath.Join(t.TempDir(), "backups"),
		LockTimeout: 200 * time.Millisecond,
	}
}

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT);
		CREATE TABLE audit_logs (id INTEGER PRIMARY KEY, action TEXT);
		INSERT INTO users (name) VALUES ('alice');
	`)
	require.NoError(t, err)
	return path
}

func TestRunHealthyDatabase(t *testing.T) {
	err := Run(testConfig(t, newTestDB(t)), Options{})
	assert.NoError(t, err)
}

func TestRunMissingFile(t *testing.T) {
	err := Run(testConfig(t, filepath.Join(t.TempDir(), "missing.db")), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	// Fatal at the disk-space heuristic regardless of flags.
	for _, opts := range []Options{{}, {Repair: true}, {Backup: true}} {
		err := Run(testConfig(t, path), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	}
}

func TestRunLockedDatabase(t *testing.T) {
	path := newTestDB(t)
	ctx := context.Background()

	holder, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer holder.Close()
	conn, err := holder.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, "BEGIN EXCLUSIVE")
	require.NoError(t, err)
	defer conn.ExecContext(ctx, "ROLLBACK")

	err = Run(testConfig(t, path), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestRunCorruptWithoutRepairFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a database"), 0o644))

	err := Run(testConfig(t, path), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity check failed")
}

func TestRunCorruptWithRepairFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a database"), 0o644))

	// A file that is not a database at all cannot be rebuilt either.
	err := Run(testConfig(t, path), Options{Repair: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repair failed")
}

func TestRunBackupFlag(t *testing.T) {
	cfg := testConfig(t, newTestDB(t))

	require.NoError(t, Run(cfg, Options{Backup: true}))

	entries, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunRepairFlagImpliesBackup(t *testing.T) {
	cfg := testConfig(t, newTestDB(t))

	// Healthy database: step 5 passes without repairing, but the repair
	// flag still requests the step 6 backup.
	require.NoError(t, Run(cfg, Options{Repair: true}))

	entries, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunWithoutFlagsSkipsBackup(t *testing.T) {
	cfg := testConfig(t, newTestDB(t))

	require.NoError(t, Run(cfg, Options{}))

	_, err := os.Stat(cfg.BackupDir)
	assert.True(t, os.IsNotExist(err))
}
