package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"grocerybi/pkg/errors"
	"grocerybi/pkg/models"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// WizardResult is the outcome of the configuration wizard. The password is
// returned separately so it can go to the keyring instead of the file.
type WizardResult struct {
	Config   *models.Config
	Password string
}

// ConfigWizard provides an interactive configuration setup
type ConfigWizard struct {
	currentStep int
	totalSteps  int

	ask    func(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error
	askOne func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error
}

// NewConfigWizard creates a wizard backed by the terminal
func NewConfigWizard() *ConfigWizard {
	return &ConfigWizard{
		currentStep: 1,
		totalSteps:  5,
		ask:         survey.Ask,
		askOne:      survey.AskOne,
	}
}

// Run walks through every step starting from base
func (w *ConfigWizard) Run(base *models.Config) (*WizardResult, error) {
	ShowHeader("grocerybi - Configuration Setup")

	config := *base
	result := &WizardResult{Config: &config}

	steps := []func(*WizardResult) error{
		w.datasetStep,
		w.warehouseStep,
		w.cacheStep,
		w.outputStep,
		w.review,
	}
	for _, step := range steps {
		if err := step(result); err != nil {
			if err == terminal.InterruptErr {
				return nil, errors.New(errors.ErrCodeInvalidInput, "Configuration cancelled")
			}
			return nil, err
		}
	}

	return result, nil
}

func (w *ConfigWizard) datasetStep(r *WizardResult) error {
	w.showProgress("Dataset")

	questions := []*survey.Question{
		{
			Name: "source",
			Prompt: &survey.Select{
				Message: "Where are the sales records?",
				Options: []string{models.SourceCSV, models.SourceWarehouse},
				Default: r.Config.Dataset.Source,
				Help:    "csv reads a file export; warehouse reads a SQL table",
			},
		},
		{
			Name: "path",
			Prompt: &survey.Input{
				Message: "CSV file path:",
				Default: r.Config.Dataset.Path,
				Help:    "Used by 'report' and 'load' when no --file flag is given",
			},
		},
	}

	answers := struct {
		Source string
		Path   string
	}{}
	if err := w.ask(questions, &answers); err != nil {
		return err
	}

	r.Config.Dataset.Source = answers.Source
	r.Config.Dataset.Path = answers.Path
	w.currentStep++
	return nil
}

func (w *ConfigWizard) warehouseStep(r *WizardResult) error {
	w.showProgress("Warehouse")

	use := r.Config.Dataset.Source == models.SourceWarehouse
	if !use {
		if err := w.askOne(&survey.Confirm{
			Message: "Configure a warehouse for 'grocerybi load'?",
			Default: false,
		}, &use); err != nil {
			return err
		}
	}
	if !use {
		w.currentStep++
		return nil
	}

	wh := &r.Config.Warehouse
	questions := []*survey.Question{
		{
			Name: "driver",
			Prompt: &survey.Select{
				Message: "Driver:",
				Options: []string{"snowflake", "mysql", "postgres", "sqlite"},
				Default: wh.Driver,
			},
		},
		{
			Name:   "host",
			Prompt: &survey.Input{Message: "Host:", Default: wh.Host},
		},
		{
			Name:     "port",
			Prompt:   &survey.Input{Message: "Port (0 for driver default):", Default: strconv.Itoa(wh.Port)},
			Validate: validateInt,
		},
		{
			Name:   "account",
			Prompt: &survey.Input{Message: "Snowflake account (leave empty otherwise):", Default: wh.Account},
		},
		{
			Name:   "username",
			Prompt: &survey.Input{Message: "Username:", Default: wh.Username},
		},
		{
			Name: "password",
			Prompt: &survey.Password{
				Message: "Password:",
				Help:    "Stored in the OS keyring, never in the config file",
			},
		},
		{
			Name:     "database",
			Prompt:   &survey.Input{Message: "Database:", Default: wh.Database},
			Validate: survey.Required,
		},
		{
			Name:   "schema",
			Prompt: &survey.Input{Message: "Schema:", Default: wh.Schema},
		},
		{
			Name:   "table",
			Prompt: &survey.Input{Message: "Table:", Default: wh.Table},
		},
	}

	answers := struct {
		Driver   string
		Host     string
		Port     string
		Account  string
		Username string
		Password string
		Database string
		Schema   string
		Table    string
	}{}
	if err := w.ask(questions, &answers); err != nil {
		return err
	}

	port, _ := strconv.Atoi(strings.TrimSpace(answers.Port))
	wh.Driver = answers.Driver
	wh.Host = answers.Host
	wh.Port = port
	wh.Account = answers.Account
	wh.Username = answers.Username
	wh.Password = ""
	wh.Database = answers.Database
	wh.Schema = answers.Schema
	if answers.Table != "" {
		wh.Table = answers.Table
	}
	r.Password = answers.Password

	w.currentStep++
	return nil
}

func (w *ConfigWizard) cacheStep(r *WizardResult) error {
	w.showProgress("Report Cache")

	questions := []*survey.Question{
		{
			Name: "backend",
			Prompt: &survey.Select{
				Message: "Cache backend:",
				Options: []string{models.CacheMemory, models.CacheRedis, models.CacheNone},
				Default: r.Config.Cache.Backend,
			},
		},
		{
			Name:     "ttl",
			Prompt:   &survey.Input{Message: "Entry lifetime:", Default: r.Config.Cache.TTL},
			Validate: validateDuration,
		},
	}

	answers := struct {
		Backend string
		TTL     string
	}{}
	if err := w.ask(questions, &answers); err != nil {
		return err
	}
	r.Config.Cache.Backend = answers.Backend
	r.Config.Cache.TTL = answers.TTL

	if answers.Backend == models.CacheRedis {
		addr := r.Config.Cache.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		if err := w.askOne(&survey.Input{Message: "Redis address:", Default: addr}, &r.Config.Cache.Addr); err != nil {
			return err
		}
	}

	w.currentStep++
	return nil
}

func (w *ConfigWizard) outputStep(r *WizardResult) error {
	w.showProgress("Output")

	questions := []*survey.Question{
		{
			Name: "format",
			Prompt: &survey.Select{
				Message: "Default output format:",
				Options: []string{"table", "json", "yaml", "csv"},
				Default: r.Config.Output.Format,
			},
		},
		{
			Name:   "color",
			Prompt: &survey.Confirm{Message: "Use colors in terminal output?", Default: r.Config.Output.Color},
		},
		{
			Name: "logLevel",
			Prompt: &survey.Select{
				Message: "Log level:",
				Options: []string{"debug", "info", "warn", "error"},
				Default: r.Config.Log.Level,
			},
		},
	}

	answers := struct {
		Format   string
		Color    bool
		LogLevel string `survey:"logLevel"`
	}{}
	if err := w.ask(questions, &answers); err != nil {
		return err
	}

	r.Config.Output.Format = answers.Format
	r.Config.Output.Color = answers.Color
	r.Config.Log.Level = answers.LogLevel
	w.currentStep++
	return nil
}

func (w *ConfigWizard) review(r *WizardResult) error {
	w.showProgress("Review")

	c := r.Config
	fmt.Fprintln(out(), ColorBold("Dataset"))
	KeyValue([2]string{"Source", c.Dataset.Source}, [2]string{"Path", c.Dataset.Path})
	if c.Dataset.Source == models.SourceWarehouse || c.Warehouse.Host != "" || c.Warehouse.Account != "" {
		fmt.Fprintln(out(), ColorBold("Warehouse"))
		KeyValue(
			[2]string{"Driver", c.Warehouse.Driver},
			[2]string{"Host", c.Warehouse.Host},
			[2]string{"Username", c.Warehouse.Username},
			[2]string{"Password", Mask(r.Password)},
			[2]string{"Table", c.Warehouse.Table},
		)
	}
	fmt.Fprintln(out(), ColorBold("Cache"))
	KeyValue([2]string{"Backend", c.Cache.Backend}, [2]string{"TTL", c.Cache.TTL})

	confirm := false
	if err := w.askOne(&survey.Confirm{Message: "Save this configuration?", Default: true}, &confirm); err != nil {
		return err
	}
	if !confirm {
		return errors.New(errors.ErrCodeInvalidInput, "Configuration not saved")
	}

	w.currentStep++
	return nil
}

func (w *ConfigWizard) showProgress(step string) {
	fmt.Fprintf(out(), "\n%s [Step %d/%d] %s\n\n",
		ColorProgress("►"),
		w.currentStep,
		w.totalSteps,
		ColorBold(step),
	)
}

func validateInt(val interface{}) error {
	s, _ := val.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

func validateDuration(val interface{}) error {
	s, _ := val.(string)
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("%q is not a duration such as 10m or 1h", s)
	}
	return nil
}
