package cmd

import (
	"grocerybi/internal/report"
	"grocerybi/internal/ui"
	"grocerybi/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	viewFile    string
	viewFormat  string
	viewNoCache bool
)

var viewCmd = &cobra.Command{
	Use:   "view <name>",
	Short: "Print a single sales view",
	Long: `Build the report and print one view by name.

Run 'grocerybi views' to list the available names.`,
	Example: `  grocerybi view sales-by-item-type --file sales.csv
  grocerybi view outlet-type-scorecard --format csv`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: report.ViewNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !knownView(name) {
			return errors.ViewNotFound(name, report.ViewNames())
		}

		opts := renderOptions(appConfig, viewFormat)
		if err := validateFormat(opts.Format); err != nil {
			return err
		}

		loader := newRecordLoader(appConfig, viewFile)
		defer loader.Close()
		c := openCache(cmd.Context(), appConfig, viewNoCache)
		defer c.Close()

		spinner := ui.NewSpinner("Building report...")
		spinner.Start()
		r, err := buildReport(cmd.Context(), appConfig, loader, c)
		spinner.Stop()
		if err != nil {
			return err
		}

		t, err := r.View(name)
		if err != nil {
			return err
		}
		return report.RenderTable(cmd.OutOrStdout(), t, opts)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&viewFile, "file", "f", "", "CSV file to read instead of the configured dataset")
	viewCmd.Flags().StringVarP(&viewFormat, "format", "o", "", "output format: table, json, yaml, csv")
	viewCmd.Flags().BoolVar(&viewNoCache, "no-cache", false, "always rebuild the report")
}

func knownView(name string) bool {
	for _, n := range report.ViewNames() {
		if n == name {
			return true
		}
	}
	return false
}

// validateFormat fails before any data is read
func validateFormat(format string) error {
	for _, f := range report.Formats() {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeUnknownFormat, "Unknown output format "+format).
		WithContext("format", format).
		WithSuggestions("Use one of: table, json, yaml, csv")
}
