package cmd

import (
	"context"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/report"
	"grocerybi/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveFile    string
	serveNoCache bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sales views over HTTP",
	Long: `Start the JSON API.

  GET /api/views          list the views
  GET /api/views/{name}   one view (?format=json|yaml|csv|table)
  GET /api/report         every view
  GET /healthz            dataset and cache health
  GET /metrics            prometheus metrics

The dataset is re-read on every request; unchanged data is answered from the
report cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr := serveAddr
		if addr == "" {
			addr = appConfig.Server.Addr
		}

		loader := newRecordLoader(appConfig, serveFile)
		defer loader.Close()
		c := openCache(ctx, appConfig, serveNoCache)
		defer c.Close()

		logger := observability.GetDefaultLogger()
		health := observability.NewHealthManager(5*time.Second, logger)
		health.RegisterCheck(observability.CheckFunc{
			CheckName: "dataset",
			Critical:  true,
			Fn:        loader.Ping,
		})
		health.RegisterCheck(observability.CheckFunc{
			CheckName: "cache",
			Fn: func(ctx context.Context) error {
				_, _, err := c.Get(ctx, "healthz")
				return err
			},
		})

		source := func(ctx context.Context) (*report.Report, error) {
			return buildReport(ctx, appConfig, loader, c)
		}

		srv := server.New(server.Config{Addr: addr}, source, health)
		logger.WithFields(map[string]interface{}{
			"addr":    addr,
			"dataset": loader.Source(),
			"cache":   appConfig.Cache.Backend,
		}).Info("Starting server")
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().StringVarP(&serveFile, "file", "f", "", "CSV file to serve instead of the configured dataset")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "rebuild the report on every request")
}
