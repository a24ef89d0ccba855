package check

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"time"
)

// StatsResult holds file-level and schema-level statistics for the report.
// The row counts assume the application's fixed schema.
type StatsResult struct {
	FileSize   int64
	FileSizeMB float64
	Created    time.Time
	Modified   time.Time
	Tables     int
	Users      int64
	Settings   int64
	AuditLogs  int64
}

// Stats collects statistics for the database file. A missing file returns
// (nil, nil): absence is signalled by a bare nil result, not an error. This
// differs from the other operations' result shapes and is kept on purpose.
// Any other failure, including a schema missing one of the expected tables,
// returns an error with no partial stats.
func Stats(dbPath string) (*StatsResult, error) {
	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dbPath, err)
	}

	res := &StatsResult{
		FileSize:   info.Size(),
		FileSizeMB: math.Round(float64(info.Size())/(1024*1024)*100) / 100,
		Created:    createdTime(info),
		Modified:   info.ModTime(),
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	err = db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'",
	).Scan(&res.Tables)
	if err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}

	// Fixed application schema. If any table is absent the whole operation
	// fails rather than reporting a misleading zero.
	for _, t := range []struct {
		name string
		dst  *int64
	}{
		{"users", &res.Users},
		{"settings", &res.Settings},
		{"audit_logs", &res.AuditLogs},
	} {
		if err := db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(t.dst); err != nil {
			return nil, fmt.Errorf("count rows in %s: %w", t.name, err)
		}
	}

	return res, nil
}
