// Package report evaluates every sales view over one normalized dataset and
// renders the results.
package report

import (
	"context"
	"encoding/json"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Report holds the result of every view for one build
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`

	TotalSales               sales.SalesTotal        `json:"total_sales"`
	AverageSales             decimal.NullDecimal     `json:"average_sales"`
	RecordCount              int                     `json:"record_count"`
	AverageRating            decimal.NullDecimal     `json:"average_rating"`
	SalesByFatContent        []sales.GroupTotal      `json:"sales_by_fat_content"`
	SalesByItemType          []sales.GroupTotal      `json:"sales_by_item_type"`
	FatContentByTier         []sales.TierFatContent  `json:"fat_content_by_tier"`
	SalesByEstablishmentYear []sales.YearTotal       `json:"sales_by_year"`
	SalesShareByOutletSize   []sales.SizeShare       `json:"sales_by_outlet_size"`
	SalesByLocationTier      []sales.GroupTotal      `json:"sales_by_location"`
	OutletTypeScorecard      []sales.OutletTypeScore `json:"outlet_type_scorecard"`
	Profile                  sales.Profile           `json:"profile"`
}

type buildOptions struct {
	source  string
	aliases map[string]string
	now     func() time.Time
}

// Option configures Build
type Option func(*buildOptions)

// WithSource records where the records came from
func WithSource(source string) Option {
	return func(o *buildOptions) { o.source = source }
}

// WithAliases overrides the fat-content alias table
func WithAliases(aliases map[string]string) Option {
	return func(o *buildOptions) { o.aliases = aliases }
}

// WithClock sets the generation timestamp source
func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) { o.now = now }
}

// Build normalizes records and evaluates all views concurrently.
// Cancelling ctx abandons views that have not started yet.
func Build(ctx context.Context, records []sales.Record, opts ...Option) (*Report, error) {
	o := buildOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	logger := observability.GetDefaultLogger().WithField("component", "report")

	dataset := sales.NewNormalizer(o.aliases).Normalize(records)
	rep := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: o.now().UTC(),
		Source:      o.source,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range catalogue {
		v := v
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			v.compute(dataset, rep)
			observability.ViewDuration.WithLabelValues(v.Name).Observe(time.Since(start).Seconds())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		observability.ReportBuilds.WithLabelValues("cancelled").Inc()
		return nil, errors.Wrap(err, errors.ErrCodeReportBuild, "Report build cancelled").
			WithContext("run_id", rep.RunID)
	}

	observability.ReportBuilds.WithLabelValues("success").Inc()
	logger.DebugWithFields("Report built", map[string]interface{}{
		"run_id":  rep.RunID,
		"records": dataset.Len(),
		"source":  o.source,
	})
	return rep, nil
}

// Encode serializes the report for caching
func (r *Report) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportBuild, "Failed to encode report")
	}
	return data, nil
}

// Decode restores a report produced by Encode
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheCorrupted, "Cached report could not be decoded")
	}
	return &r, nil
}
