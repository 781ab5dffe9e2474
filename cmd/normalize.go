package cmd

import (
	"fmt"
	"sort"

	"grocerybi/internal/dataset"
	"grocerybi/internal/observability"
	"grocerybi/internal/sales"
	"grocerybi/internal/ui"

	"github.com/spf13/cobra"
)

var (
	normalizeFile   string
	normalizeOutput string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Write the dataset with canonical fat content labels",
	Long: `Read the dataset, map every Item Fat Content alias to its canonical label
and write the result as CSV to stdout or --output.

The alias table comes from normalize.aliases in the configuration and defaults
to LF and "low fat" -> Low Fat, reg -> Regular.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := newRecordLoader(appConfig, normalizeFile)
		defer loader.Close()

		records, err := loader.Load(cmd.Context())
		if err != nil {
			return err
		}

		normalizer := sales.NewNormalizer(appConfig.Normalize.Aliases)
		normalized := normalizer.Normalize(records).Records()
		changed := 0
		for i := range records {
			if records[i].ItemFatContent != normalized[i].ItemFatContent {
				changed++
			}
		}
		observability.GetDefaultLogger().WithFields(map[string]interface{}{
			"records": len(records),
			"changed": changed,
			"aliases": aliasList(normalizer.Aliases()),
		}).Info("Normalized fat content labels")

		if normalizeOutput == "" {
			return dataset.WriteCSV(cmd.OutOrStdout(), normalized)
		}
		if err := dataset.SaveFile(normalizeOutput, normalized); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Wrote %d records to %s (%d labels rewritten)", len(normalized), normalizeOutput, changed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVarP(&normalizeFile, "file", "f", "", "CSV file to read instead of the configured dataset")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "O", "", "write to this file instead of stdout")
}

func aliasList(aliases map[string]string) []string {
	out := make([]string, 0, len(aliases))
	for from, to := range aliases {
		out = append(out, fmt.Sprintf("%s=%s", from, to))
	}
	sort.Strings(out)
	return out
}
