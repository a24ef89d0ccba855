package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// TableSchema is one user table's name and CREATE statement. A JSON list of
// these is the snapshot salvage rebuilds a database from.
type TableSchema struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// ExportSchema writes the DDL of every user table to outPath as JSON.
// Snapshots should be taken while the database is healthy; salvage can only
// rebuild tables it has a CREATE statement for.
func ExportSchema(dbPath, outPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	rows, err := db.Query(
		"SELECT name, sql FROM sqlite_master WHERE type='table' AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'",
	)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	var schemas []TableSchema
	for rows.Next() {
		var s TableSchema
		if err := rows.Scan(&s.Name, &s.SQL); err != nil {
			return fmt.Errorf("scan schema row: %w", err)
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read schema rows: %w", err)
	}

	data, err := json.MarshalIndent(schemas, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}

// LoadSchema reads a snapshot produced by ExportSchema.
func LoadSchema(path string) ([]TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema snapshot: %w", err)
	}
	var schemas []TableSchema
	if err := json.Unmarshal(data, &schemas); err != nil {
		return nil, fmt.Errorf("decode schema snapshot: %w", err)
	}
	return schemas, nil
}
