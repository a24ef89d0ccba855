// Package check implements the read-only diagnostic operations: integrity
// verification, lock probing, and statistics collection. Every operation
// opens its own handle and closes it before returning; nothing is cached
// between calls.
package check

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// IntegrityResult reports the outcome of an integrity scan. Details carries
// the raw engine check strings and basic file stat info for the report.
type IntegrityResult struct {
	Valid   bool
	Message string
	Details map[string]string
}

// Integrity verifies the database file with both PRAGMA integrity_check and
// PRAGMA quick_check. The file is valid only if both return the canonical
// single "ok" row. A missing or empty file yields an invalid result rather
// than an error.
func Integrity(dbPath string) IntegrityResult {
	info, err := os.Stat(dbPath)
	if err != nil {
		return IntegrityResult{
			Message: "Database file does not exist",
			Details: map[string]string{"path": dbPath},
		}
	}
	if info.Size() == 0 {
		return IntegrityResult{
			Message: "Database file is empty",
			Details: map[string]string{"path": dbPath, "size_bytes": "0"},
		}
	}

	details := map[string]string{
		"path":       dbPath,
		"size_bytes": fmt.Sprintf("%d", info.Size()),
		"modified":   info.ModTime().Format("2006-01-02 15:04:05"),
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return IntegrityResult{Message: fmt.Sprintf("failed to open database: %v", err), Details: details}
	}
	defer db.Close()

	full, err := runPragmaCheck(db, "integrity_check")
	if err != nil {
		return IntegrityResult{Message: fmt.Sprintf("integrity check failed: %v", err), Details: details}
	}
	details["integrity_check"] = full

	quick, err := runPragmaCheck(db, "quick_check")
	if err != nil {
		return IntegrityResult{Message: fmt.Sprintf("quick check failed: %v", err), Details: details}
	}
	details["quick_check"] = quick

	if full != "ok" {
		return IntegrityResult{Message: fmt.Sprintf("integrity check returned: %s", full), Details: details}
	}
	if quick != "ok" {
		return IntegrityResult{Message: fmt.Sprintf("quick check returned: %s", quick), Details: details}
	}

	return IntegrityResult{Valid: true, Message: "Database integrity verified", Details: details}
}

// runPragmaCheck executes one of the engine's check pragmas and collapses
// its result rows to a single string. A healthy database produces exactly
// one row containing "ok"; anything else is a diagnostic.
func runPragmaCheck(db *sql.DB, pragma string) (string, error) {
	rows, err := db.Query("PRAGMA " + pragma)
	if err != nil {
		return "", fmt.Errorf("pragma %s: %w", pragma, err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", fmt.Errorf("scan %s result: %w", pragma, err)
		}
		results = append(results, line)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read %s results: %w", pragma, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("pragma %s returned no rows", pragma)
	}
	return strings.Join(results, "; "), nil
}
