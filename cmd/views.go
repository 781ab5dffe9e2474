package cmd

import (
	"grocerybi/internal/report"

	"github.com/spf13/cobra"
)

var viewsFormat string

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List the available views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := renderOptions(appConfig, viewsFormat)
		if err := validateFormat(opts.Format); err != nil {
			return err
		}
		return report.RenderViews(cmd.OutOrStdout(), report.Views(), opts)
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.Flags().StringVarP(&viewsFormat, "format", "o", "", "output format: table, json, yaml, csv")
}
