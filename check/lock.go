package check

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// LockResult reports whether another process holds a conflicting lock on
// the database file.
type LockResult struct {
	Locked  bool
	Message string
}

// Lock probes the database for contention by opening a handle with a short
// busy timeout and running a trivial read. The timeout distinguishes a held
// lock from a database that is merely slow.
// uriPath percent-encodes the characters that would end the path part of
// a file: URI early. Without it a path containing ? or # probes the wrong
// file.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func Lock(dbPath string, timeout time.Duration) LockResult {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", uriPath.Replace(dbPath), timeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return LockResult{Message: fmt.Sprintf("failed to open database: %v", err)}
	}
	defer db.Close()

	var one int
	err = db.QueryRow("SELECT 1").Scan(&one)
	if err == nil {
		return LockResult{Message: "Database is not locked"}
	}
	if isLockError(err) {
		return LockResult{Locked: true, Message: "Database is locked by another process"}
	}
	// Anything that is not a busy/locked code is reported as not locked.
	// This is a narrow policy: other failures may hide real problems, so
	// the message carries the underlying error for the operator.
	return LockResult{Message: fmt.Sprintf("lock check inconclusive: %v", err)}
}

// isLockError is the lock-classification policy: only the engine's BUSY and
// LOCKED primary result codes count as a genuine lock.
func isLockError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
