// Package backup creates timestamped copies of the database file and
// exports schema snapshots used by salvage.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result reports a backup attempt. Path is set only on success.
type Result struct {
	Success bool
	Path    string
	Err     string
}

// Create copies the database file byte-for-byte into dir, creating dir if
// needed. The copy is named <base>.backup.<stamp> where the stamp is the
// current ISO-8601 time with colons and periods replaced by hyphens so the
// name is safe on every filesystem.
func Create(src, dir string) Result {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return Result{Err: "database file does not exist"}
		}
		return Result{Err: fmt.Sprintf("stat source: %v", err)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Err: fmt.Sprintf("create backup directory: %v", err)}
	}

	dst := filepath.Join(dir, filepath.Base(src)+".backup."+timestamp(time.Now()))
	if err := copyFile(src, dst); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Success: true, Path: dst}
}

// timestamp renders t in ISO-8601 form with the characters that are unsafe
// in filenames swapped for hyphens.
func timestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(t.Format("2006-01-02T15:04:05.000000"))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close backup file: %w", err)
	}
	return nil
}
