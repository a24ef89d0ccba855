// Package cli wires the cobra command tree. The root command runs the full
// diagnostic sequence; subcommands expose the individual operations.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/config"
	"github.com/opsleuth/sqlite-doctor/doctor"
)

var (
	cfgFile    string
	flagRepair bool
	flagBackup bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlite-doctor",
	Short: "Diagnose, back up, and repair a SQLite database file",
	Long: `sqlite-doctor runs a fixed sequence of health checks against the
application's SQLite database: file existence, permissions, size sanity,
lock state, and integrity, followed by an optional backup and a statistics
report. It exits 0 when the database is healthy and 1 on the first fatal
problem.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return doctor.Run(cfg, doctor.Options{Repair: flagRepair, Backup: flagBackup})
	},
}

// Execute runs the CLI and owns the process exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional config file, environment, and
// whatever flags the user set on the invoked command.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a sqlite-doctor.yaml config file")
	rootCmd.PersistentFlags().String("db-path", "", "path to the database file")
	rootCmd.PersistentFlags().String("backup-dir", "", "directory that receives database backups")
	rootCmd.Flags().BoolVar(&flagRepair, "repair", false, "attempt a repair if the integrity check fails (implies a backup)")
	rootCmd.Flags().BoolVar(&flagBackup, "backup", false, "create a timestamped backup of the database")
}
