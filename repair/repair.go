// Package repair rebuilds the database file in place via the engine's
// VACUUM command and verifies the result.
package repair

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pterm/pterm"

	"github.com/opsleuth/sqlite-doctor/backup"
	"github.com/opsleuth/sqlite-doctor/check"
)

// Result reports a repair attempt. BackupPath is set whenever the
// pre-repair backup succeeded, regardless of the repair outcome.
type Result struct {
	Success    bool
	Message    string
	BackupPath string
}

// Run backs the database up and then rebuilds it with VACUUM, reporting
// success only if the post-rebuild integrity check comes back clean.
//
// A failed backup does not stop the repair: when the database is already
// failing its integrity check, an attempted rebuild is worth more than a
// guaranteed safety net. The failure is surfaced as a warning instead.
func Run(dbPath, backupDir string) Result {
	if _, err := os.Stat(dbPath); err != nil {
		return Result{Message: "Database file does not exist"}
	}

	var backupPath string
	if b := backup.Create(dbPath, backupDir); b.Success {
		backupPath = b.Path
	} else {
		pterm.Warning.Printfln("pre-repair backup failed, continuing anyway: %s", b.Err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return Result{Message: fmt.Sprintf("failed to open database: %v", err), BackupPath: backupPath}
	}

	_, err = db.Exec("VACUUM")
	db.Close()
	if err != nil {
		return Result{Message: fmt.Sprintf("vacuum failed: %v", err), BackupPath: backupPath}
	}

	if res := check.Integrity(dbPath); !res.Valid {
		return Result{
			Message:    fmt.Sprintf("rebuild did not restore integrity: %s", res.Message),
			BackupPath: backupPath,
		}
	}

	return Result{Success: true, Message: "Database repaired successfully", BackupPath: backupPath}
}
