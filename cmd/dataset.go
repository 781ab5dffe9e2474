package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"grocerybi/internal/cache"
	"grocerybi/internal/config"
	"grocerybi/internal/dataset"
	"grocerybi/internal/observability"
	"grocerybi/internal/report"
	"grocerybi/internal/sales"
	"grocerybi/internal/ui"
	"grocerybi/internal/warehouse"
	"grocerybi/pkg/errors"
	"grocerybi/pkg/models"
)

// recordLoader reads raw records from a CSV file or the configured
// warehouse. The warehouse connection is opened on first use and reused.
type recordLoader struct {
	cfg  *models.Config
	file string

	mu sync.Mutex
	wh *warehouse.Service
}

// newRecordLoader prefers an explicit --file over the configured source
func newRecordLoader(cfg *models.Config, file string) *recordLoader {
	return &recordLoader{cfg: cfg, file: file}
}

func (l *recordLoader) csvPath() (string, bool) {
	if l.file != "" {
		return l.file, true
	}
	if l.cfg.Dataset.Source == models.SourceWarehouse {
		return "", false
	}
	return l.cfg.Dataset.Path, true
}

// Source describes where records come from, e.g. "sales.csv" or
// "mysql:grocery_sales"
func (l *recordLoader) Source() string {
	if path, ok := l.csvPath(); ok {
		return path
	}
	return fmt.Sprintf("%s:%s", l.cfg.Warehouse.Driver, l.cfg.Warehouse.Table)
}

func (l *recordLoader) Load(ctx context.Context) ([]sales.Record, error) {
	path, ok := l.csvPath()
	if ok {
		if path == "" {
			return nil, errors.ConfigError("No dataset configured", "dataset.path").
				WithSuggestions("Pass --file or set dataset.path in the configuration")
		}
		return dataset.LoadFile(path)
	}

	wh, err := l.warehouse(ctx)
	if err != nil {
		return nil, err
	}
	return wh.Records(ctx)
}

// Ping checks that the dataset is reachable without reading it
func (l *recordLoader) Ping(ctx context.Context) error {
	if path, ok := l.csvPath(); ok {
		if _, err := os.Stat(path); err != nil {
			return errors.DatasetError(errors.ErrCodeDatasetNotFound, "Dataset file not found", path, err)
		}
		return nil
	}

	wh, err := l.warehouse(ctx)
	if err != nil {
		return err
	}
	return wh.Ping(ctx)
}

func (l *recordLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.wh == nil {
		return nil
	}
	err := l.wh.Close()
	l.wh = nil
	return err
}

func (l *recordLoader) warehouse(ctx context.Context) (*warehouse.Service, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.wh != nil {
		return l.wh, nil
	}

	wh, err := connectWarehouse(ctx, l.cfg)
	if err != nil {
		return nil, err
	}
	l.wh = wh
	return wh, nil
}

// connectWarehouse resolves the keyring password and opens the warehouse
func connectWarehouse(ctx context.Context, cfg *models.Config) (*warehouse.Service, error) {
	if err := config.ResolvePassword(cfg); err != nil {
		observability.GetDefaultLogger().WithError(err).Warn("Keyring lookup failed")
	}

	svc, err := warehouse.NewService(warehouse.ConfigFromModel(cfg.Warehouse, cfg.WarehouseTimeout()))
	if err != nil {
		return nil, err
	}
	if err := svc.Connect(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// openCache falls back to no caching when the backend is unreachable
func openCache(ctx context.Context, cfg *models.Config, disabled bool) cache.Cache {
	if disabled {
		return cache.Noop{}
	}
	c, err := cache.New(ctx, cfg.Cache, cfg.CacheTTL())
	if err != nil {
		observability.GetDefaultLogger().WithError(err).
			WithField("backend", cfg.Cache.Backend).
			Warn("Report cache unavailable, building without it")
		return cache.Noop{}
	}
	return c
}

// buildReport loads the records and builds the report through the cache
func buildReport(ctx context.Context, cfg *models.Config, loader *recordLoader, c cache.Cache) (*report.Report, error) {
	records, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	r, hit, err := report.BuildCached(ctx, c, cfg.CacheTTL(), records,
		report.WithSource(loader.Source()),
		report.WithAliases(cfg.Normalize.Aliases),
	)
	if err != nil {
		return nil, err
	}

	observability.GetDefaultLogger().WithFields(map[string]interface{}{
		"run_id":    r.RunID,
		"records":   len(records),
		"cache_hit": hit,
	}).Debug("Report ready")
	return r, nil
}

// renderOptions resolves --format against output.format
func renderOptions(cfg *models.Config, format string) report.RenderOptions {
	if format == "" {
		format = cfg.Output.Format
	}
	return report.RenderOptions{Format: format, Color: ui.ColorEnabled()}
}
