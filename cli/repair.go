package cli

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Back up the database, then rebuild it with VACUUM",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := repair.Run(cfg.DBPath, cfg.BackupDir)
		if res.BackupPath != "" {
			pterm.Printfln("pre-repair backup: %s", res.BackupPath)
		}
		if !res.Success {
			pterm.Printfln("❌ %s", res.Message)
			return errors.New("repair failed")
		}
		pterm.Printfln("✓ %s", res.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
