package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/check"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database file and schema statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stats, err := check.Stats(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("collect statistics: %w", err)
		}
		if stats == nil {
			return errors.New("database file does not exist")
		}
		pterm.Printfln("file size:  %s (%.2f MB)", humanize.Bytes(uint64(stats.FileSize)), stats.FileSizeMB)
		pterm.Printfln("created:    %s", stats.Created.Format("2006-01-02 15:04:05"))
		pterm.Printfln("modified:   %s", stats.Modified.Format("2006-01-02 15:04:05"))
		pterm.Printfln("tables:     %d", stats.Tables)
		pterm.Printfln("users:      %d", stats.Users)
		pterm.Printfln("settings:   %d", stats.Settings)
		pterm.Printfln("audit logs: %d", stats.AuditLogs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
