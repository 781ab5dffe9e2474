package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"grocerybi/internal/config"
	"grocerybi/internal/ui"
	"grocerybi/pkg/errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	passwordFromStdin bool
	passwordDelete    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the grocerybi configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the configuration interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := ui.NewConfigWizard().Run(appConfig)
		if err != nil {
			return err
		}

		if err := config.Save(result.Config); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to save configuration").
				WithContext("path", config.GetConfigFile())
		}
		ui.ShowSuccess("Configuration saved to " + config.GetConfigFile())

		if result.Password != "" {
			if err := config.StorePassword(result.Config.Warehouse, result.Password); err != nil {
				ui.ShowWarning(fmt.Sprintf("Password not stored: %v", err))
				ui.ShowInfo("Set GROCERYBI_WAREHOUSE_PASSWORD instead")
				return nil
			}
			ui.ShowSuccess("Warehouse password stored in the system keyring")
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after environment overrides are applied.
Passwords are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *appConfig
		shown.Warehouse.Password = maskSet(shown.Warehouse.Password)
		shown.Cache.Password = maskSet(shown.Cache.Password)

		data, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		source := config.GetConfigFile()
		if !config.Exists() {
			source += " (not found, showing defaults)"
		}
		fmt.Fprintf(out, "# %s\n", source)
		_, err = out.Write(data)
		return err
	},
}

var configSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the warehouse password in the system keyring",
	Long: `Store the warehouse password in the system keyring so it does not have to be
written to the configuration file. The entry is keyed by driver, username and host.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wh := appConfig.Warehouse
		if passwordDelete {
			if err := config.DeletePassword(wh); err != nil {
				return err
			}
			ui.ShowSuccess("Warehouse password removed from the system keyring")
			return nil
		}

		var password string
		if passwordFromStdin {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New(errors.ErrCodeInvalidInput, "No password on stdin")
			}
			password = strings.TrimRight(line, "\r\n")
		} else {
			prompt := &survey.Password{
				Message: fmt.Sprintf("Password for %s@%s:", wh.Username, wh.Driver),
			}
			if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, "Password entry cancelled")
			}
		}
		if password == "" {
			return errors.New(errors.ErrCodeInvalidInput, "Empty password")
		}

		if err := config.StorePassword(wh, password); err != nil {
			return err
		}
		ui.ShowSuccess("Warehouse password stored in the system keyring")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetPasswordCmd)

	configSetPasswordCmd.Flags().BoolVar(&passwordFromStdin, "stdin", false, "read the password from stdin")
	configSetPasswordCmd.Flags().BoolVar(&passwordDelete, "delete", false, "remove the stored password")
}

// maskSet replaces a secret with a fixed-width mask
func maskSet(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
