package cli

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/check"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the integrity check only",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := check.Integrity(cfg.DBPath)
		if !res.Valid {
			pterm.Printfln("❌ %s", res.Message)
			return errors.New("integrity check failed")
		}
		pterm.Printfln("✓ %s", res.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
