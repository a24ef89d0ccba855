package cli

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opsleuth/sqlite-doctor/backup"
	"github.com/opsleuth/sqlite-doctor/salvage"
)

var salvageOpts salvage.Options

var salvageCmd = &cobra.Command{
	Use:   "salvage",
	Short: "Carve surviving rows out of a badly damaged database",
	Long: `salvage is the last resort when VACUUM cannot rebuild the database.
It scans the damaged file page by page and re-inserts every readable row
into a fresh database created from a schema snapshot (see snapshot-schema).
Rows on destroyed or overflow pages are lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if salvageOpts.SourcePath == "" || salvageOpts.SchemaPath == "" || salvageOpts.OutputPath == "" {
			return errors.New("--src, --schema, and --out are all required")
		}
		rep, err := salvage.Run(salvageOpts)
		if err != nil {
			return err
		}
		pterm.Printfln("✓ scanned %d pages (%d table leaves), recovered %d rows into %s",
			rep.PagesScanned, rep.LeafPages, rep.RowsRecovered, salvageOpts.OutputPath)
		return nil
	},
}

var snapshotSchemaCmd = &cobra.Command{
	Use:   "snapshot-schema <output.json>",
	Short: "Export the database schema for later use by salvage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := backup.ExportSchema(cfg.DBPath, args[0]); err != nil {
			return err
		}
		pterm.Printfln("✓ schema snapshot written to %s", args[0])
		return nil
	},
}

func init() {
	salvageCmd.Flags().StringVar(&salvageOpts.SourcePath, "src", "", "damaged database file")
	salvageCmd.Flags().StringVar(&salvageOpts.SchemaPath, "schema", "", "schema snapshot JSON from snapshot-schema")
	salvageCmd.Flags().StringVar(&salvageOpts.OutputPath, "out", "", "path for the rebuilt database")
	salvageCmd.Flags().IntVar(&salvageOpts.PageSize, "pagesize", salvage.DefaultPageSize, "page size of the damaged database")
	rootCmd.AddCommand(salvageCmd)
	rootCmd.AddCommand(snapshotSchemaCmd)
}
