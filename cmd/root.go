package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"grocerybi/internal/config"
	"grocerybi/internal/observability"
	"grocerybi/internal/ui"
	"grocerybi/pkg/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	appConfig *models.Config
	settings  = viper.New()

	rootCmd = &cobra.Command{
		Use:   "grocerybi",
		Short: "Grocery sales analytics",
		Long: `grocerybi - Sales analytics over grocery outlet records.

Reads a CSV export or a warehouse table, normalizes the fat content labels and
prints the standard set of aggregate views as tables, JSON, YAML or CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
)

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		ui.SetOutput(os.Stderr)
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.grocerybi/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("no-color", false, "disable colored output")

	bindFlags(flags, map[string]string{
		"log.level": "log-level",
	})

	settings.SetEnvPrefix("GROCERYBI")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	settings.AutomaticEnv()
}

// bindFlags binds flag names to configuration keys
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := settings.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func initConfig() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	// 'config init' saves to the same file it was loaded from
	if cfgFile != "" {
		if err := os.Setenv(config.EnvConfigFile, cfgFile); err != nil {
			return err
		}
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		return err
	}
	applyOverrides(appConfig)

	noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
	ui.DisableColor(noColor || !appConfig.Output.Color)
	color.NoColor = !ui.ColorEnabled()

	observability.SetDefaultLogger(observability.NewLogger(observability.LoggerConfig{
		Level:   observability.LogLevelFromString(appConfig.Log.Level),
		Output:  os.Stderr,
		Version: Version,
	}))
	return nil
}

// applyOverrides copies every key set in the environment
// (GROCERYBI_WAREHOUSE_HOST, ...) or on a bound flag over the file configuration
func applyOverrides(cfg *models.Config) {
	str := func(key string, dst *string) {
		if settings.IsSet(key) {
			*dst = settings.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if settings.IsSet(key) {
			*dst = settings.GetInt(key)
		}
	}

	str("dataset.path", &cfg.Dataset.Path)
	str("dataset.source", &cfg.Dataset.Source)

	wh := &cfg.Warehouse
	str("warehouse.driver", &wh.Driver)
	str("warehouse.host", &wh.Host)
	num("warehouse.port", &wh.Port)
	str("warehouse.account", &wh.Account)
	str("warehouse.username", &wh.Username)
	str("warehouse.password", &wh.Password)
	str("warehouse.database", &wh.Database)
	str("warehouse.schema", &wh.Schema)
	str("warehouse.warehouse", &wh.Warehouse)
	str("warehouse.role", &wh.Role)
	str("warehouse.table", &wh.Table)
	str("warehouse.timeout", &wh.Timeout)
	num("warehouse.batch_size", &wh.BatchSize)

	str("cache.backend", &cfg.Cache.Backend)
	str("cache.addr", &cfg.Cache.Addr)
	str("cache.password", &cfg.Cache.Password)
	num("cache.db", &cfg.Cache.DB)
	str("cache.ttl", &cfg.Cache.TTL)

	str("server.addr", &cfg.Server.Addr)
	str("output.format", &cfg.Output.Format)
	if settings.IsSet("output.color") {
		cfg.Output.Color = settings.GetBool("output.color")
	}
	str("log.level", &cfg.Log.Level)

	cfg.ApplyDefaults()
}
