package cli

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a timestamped backup of the database file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := backup.Create(cfg.DBPath, cfg.BackupDir)
		if !res.Success {
			pterm.Printfln("❌ backup failed: %s", res.Err)
			return errors.New("backup failed")
		}
		pterm.Printfln("✓ backup written to %s", res.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
