// Package doctor runs the seven-step diagnostic sequence and prints the
// human-readable report. The helper packages only describe outcomes;
// deciding which failures are fatal happens here.
package doctor

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/opsleuth/sqlite-doctor/backup"
	"github.com/opsleuth/sqlite-doctor/check"
	"github.com/opsleuth/sqlite-doctor/config"
	"github.com/opsleuth/sqlite-doctor/repair"
)

// Options are the driver's two behaviour flags. Repair implies that a
// backup is wanted too.
type Options struct {
	Repair bool
	Backup bool
}

// Run executes the diagnostic steps in order against cfg.DBPath. A nil
// return means every check passed; a non-nil return names the fatal step
// and the caller owes the process a non-zero exit status.
func Run(cfg config.Config, opts Options) error {
	pterm.Println("SQLite database diagnostics")
	pterm.Printfln("Database: %s", cfg.DBPath)
	pterm.Println()

	if err := stepFileExists(cfg.DBPath); err != nil {
		return err
	}
	if err := stepPermissions(cfg.DBPath); err != nil {
		return err
	}
	if err := stepDiskSpace(cfg.DBPath); err != nil {
		return err
	}
	if err := stepLock(cfg); err != nil {
		return err
	}
	if err := stepIntegrity(cfg, opts); err != nil {
		return err
	}
	stepBackup(cfg, opts)
	stepStats(cfg.DBPath)

	pterm.Println()
	pterm.Println("✓ All checks passed — database is healthy")
	return nil
}

func stepFileExists(dbPath string) error {
	pterm.Println("Step 1/7: database file exists")
	if _, err := os.Stat(dbPath); err != nil {
		pterm.Printfln("  ❌ database file not found: %s", dbPath)
		pterm.Println("     Restore the file from a backup or reinstall the application")
		return fmt.Errorf("database file not found: %s", dbPath)
	}
	pterm.Println("  ✓ file present")
	return nil
}

// stepPermissions probes read and write access by actually opening the
// file. Checking mode bits alone would miss ACLs and immutable flags.
func stepPermissions(dbPath string) error {
	pterm.Println("Step 2/7: read/write permissions")
	if err := probeOpen(dbPath, os.O_RDONLY); err != nil {
		pterm.Printfln("  ❌ cannot read database file: %v", err)
		pterm.Println("     Fix ownership or mode bits on the file and its directory")
		return fmt.Errorf("database file is not readable: %w", err)
	}
	if err := probeOpen(dbPath, os.O_WRONLY); err != nil {
		pterm.Printfln("  ❌ cannot write database file: %v", err)
		pterm.Println("     Fix ownership or mode bits on the file and its directory")
		return fmt.Errorf("database file is not writable: %w", err)
	}
	pterm.Println("  ✓ readable and writable")
	return nil
}

func probeOpen(path string, flag int) error {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

// stepDiskSpace is a heuristic: a zero-byte database file most often means
// the disk filled up while the engine was creating or truncating it. Other
// failures here are warnings only.
func stepDiskSpace(dbPath string) error {
	pterm.Println("Step 3/7: file size sanity")
	info, err := os.Stat(dbPath)
	if err != nil {
		pterm.Printfln("  ⚠ could not stat database file: %v", err)
		return nil
	}
	if info.Size() == 0 {
		pterm.Println("  ❌ database file is empty (possible disk-full condition)")
		pterm.Println("     Free disk space, then restore the database from a backup")
		return fmt.Errorf("database file is empty")
	}
	pterm.Printfln("  ✓ file size %s (%d bytes)", humanize.Bytes(uint64(info.Size())), info.Size())
	return nil
}

func stepLock(cfg config.Config) error {
	pterm.Println("Step 4/7: lock check")
	res := check.Lock(cfg.DBPath, cfg.LockTimeout)
	if res.Locked {
		pterm.Printfln("  ❌ %s", res.Message)
		pterm.Println("     Stop the application or any other process using this database, then retry")
		return fmt.Errorf("database is locked")
	}
	pterm.Printfln("  ✓ %s", res.Message)
	return nil
}

func stepIntegrity(cfg config.Config, opts Options) error {
	pterm.Println("Step 5/7: integrity check")
	res := check.Integrity(cfg.DBPath)
	if res.Valid {
		pterm.Printfln("  ✓ %s", res.Message)
		return nil
	}

	pterm.Printfln("  ❌ %s", res.Message)
	if !opts.Repair {
		pterm.Println("     Rerun with --repair to attempt an automatic repair")
		return fmt.Errorf("integrity check failed: %s", res.Message)
	}

	pterm.Println("  attempting repair...")
	rep := repair.Run(cfg.DBPath, cfg.BackupDir)
	if rep.BackupPath != "" {
		pterm.Printfln("  pre-repair backup: %s", rep.BackupPath)
	}
	if !rep.Success {
		pterm.Printfln("  ❌ repair failed: %s", rep.Message)
		pterm.Println("     Restore from a backup, or try salvage with a schema snapshot")
		return fmt.Errorf("repair failed: %s", rep.Message)
	}
	pterm.Printfln("  ✓ %s", rep.Message)
	return nil
}

func stepBackup(cfg config.Config, opts Options) {
	pterm.Println("Step 6/7: backup")
	if !opts.Backup && !opts.Repair {
		pterm.Println("  - skipped (run with --backup to create one)")
		return
	}
	res := backup.Create(cfg.DBPath, cfg.BackupDir)
	if !res.Success {
		pterm.Printfln("  ⚠ backup failed: %s", res.Err)
		return
	}
	pterm.Printfln("  ✓ backup written to %s", res.Path)
}

func stepStats(dbPath string) {
	pterm.Println("Step 7/7: statistics")
	stats, err := check.Stats(dbPath)
	if err != nil {
		pterm.Printfln("  ⚠ could not collect statistics: %v", err)
		return
	}
	if stats == nil {
		pterm.Println("  ⚠ database file disappeared during diagnostics")
		return
	}
	pterm.Printfln("  file size:  %s (%.2f MB)", humanize.Bytes(uint64(stats.FileSize)), stats.FileSizeMB)
	pterm.Printfln("  created:    %s", stats.Created.Format("2006-01-02 15:04:05"))
	pterm.Printfln("  modified:   %s", stats.Modified.Format("2006-01-02 15:04:05"))
	pterm.Printfln("  tables:     %d", stats.Tables)
	pterm.Printfln("  users:      %d", stats.Users)
	pterm.Printfln("  settings:   %d", stats.Settings)
	pterm.Printfln("  audit logs: %d", stats.AuditLogs)
}
