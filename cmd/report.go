package cmd

import (
	"grocerybi/internal/report"
	"grocerybi/internal/ui"

	"github.com/spf13/cobra"
)

var (
	reportFile    string
	reportFormat  string
	reportNoCache bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print every sales view",
	Long: `Build the full sales report and print all views.

The dataset is read from --file, or from dataset.path / the warehouse when no
file is given. Fat content labels are normalized before any view runs.`,
	Example: `  grocerybi report --file sales.csv
  grocerybi report --format json > report.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := renderOptions(appConfig, reportFormat)
		if err := validateFormat(opts.Format); err != nil {
			return err
		}

		loader := newRecordLoader(appConfig, reportFile)
		defer loader.Close()
		c := openCache(cmd.Context(), appConfig, reportNoCache)
		defer c.Close()

		spinner := ui.NewSpinner("Building report...")
		spinner.Start()
		r, err := buildReport(cmd.Context(), appConfig, loader, c)
		spinner.Stop()
		if err != nil {
			return err
		}

		return report.RenderReport(cmd.OutOrStdout(), r, opts)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFile, "file", "f", "", "CSV file to read instead of the configured dataset")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "o", "", "output format: table, json, yaml, csv")
	reportCmd.Flags().BoolVar(&reportNoCache, "no-cache", false, "always rebuild the report")
}
