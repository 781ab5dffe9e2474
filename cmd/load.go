package cmd

import (
	"fmt"

	"grocerybi/internal/dataset"
	"grocerybi/internal/ui"
	"grocerybi/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	loadFile    string
	loadReplace bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a CSV export into the warehouse table",
	Long: `Create the sales table if it does not exist and insert every record of a
CSV export in batched transactions. Labels are stored as exported; they are
normalized when the report is built.`,
	Example: `  grocerybi load --file sales.csv
  grocerybi load --file sales.csv --replace`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := loadFile
		if path == "" {
			path = appConfig.Dataset.Path
		}
		if path == "" {
			return errors.ConfigError("No CSV file to load", "dataset.path").
				WithSuggestions("Pass --file with the export to load")
		}

		records, err := dataset.LoadFile(path)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		svc, err := connectWarehouse(ctx, appConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.EnsureTable(ctx); err != nil {
			return err
		}

		bar := ui.NewProgressBar("Loading records", len(records))
		svc.SetProgress(func(loaded, _ int) { bar.Update(loaded) })
		n, err := svc.LoadRecords(ctx, records, loadReplace)
		bar.Finish(err == nil)
		if err != nil {
			return err
		}

		total, err := svc.Count(ctx)
		if err != nil {
			return err
		}

		ui.ShowSuccess(fmt.Sprintf("Loaded %d records into %s (%d rows in table)", n, appConfig.Warehouse.Table, total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "CSV export to load (default dataset.path)")
	loadCmd.Flags().BoolVar(&loadReplace, "replace", false, "delete existing rows before loading")
}
