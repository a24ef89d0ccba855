package backup

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndLoadSchema(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out := filepath.Join(dir, "schema.json")
	require.NoError(t, ExportSchema(dbPath, out))

	schemas, err := LoadSchema(out)
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	names := []string{schemas[0].Name, schemas[1].Name}
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "settings")
	for _, s := range schemas {
		assert.True(t, strings.HasPrefix(s.SQL, "CREATE TABLE"), "unexpected DDL: %s", s.SQL)
	}
}

func TestLoadSchemaMissingFile(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
