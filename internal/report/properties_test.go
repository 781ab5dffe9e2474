package report

import (
	"context"
	"testing"

	"grocerybi/internal/sales"
	"grocerybi/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// each group total is rounded to cents, so a sum over n groups may drift by
// up to n half-cents from the grand total
func assertSumClose(t *testing.T, want decimal.Decimal, values []decimal.Decimal, view string) {
	t.Helper()
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	tolerance := decimal.New(5, -3).Mul(decimal.NewFromInt(int64(len(values))))
	assert.True(t, sum.Sub(want).Abs().LessThanOrEqual(tolerance),
		"%s: groups sum to %s, total is %s", view, sum, want)
}

func TestBuildGeneratedDataset(t *testing.T) {
	records := testutil.NewRecordGenerator(42).Records(500)

	r, err := Build(context.Background(), records)
	require.NoError(t, err)

	total := r.TotalSales.TotalSales
	assert.Equal(t, 500, r.RecordCount)

	groupSales := func(groups []sales.GroupTotal) []decimal.Decimal {
		out := make([]decimal.Decimal, len(groups))
		for i, g := range groups {
			out[i] = g.TotalSales
		}
		return out
	}
	assertSumClose(t, total, groupSales(r.SalesByFatContent), "sales-by-fat-content")
	assertSumClose(t, total, groupSales(r.SalesByItemType), "sales-by-item-type")
	assertSumClose(t, total, groupSales(r.SalesByLocationTier), "sales-by-location")

	var years, sizes, shares, scorecard, pivot []decimal.Decimal
	for _, y := range r.SalesByEstablishmentYear {
		years = append(years, y.TotalSales)
	}
	for _, s := range r.SalesShareByOutletSize {
		sizes = append(sizes, s.TotalSales)
		shares = append(shares, s.Percentage)
	}
	for _, o := range r.OutletTypeScorecard {
		scorecard = append(scorecard, o.TotalSales)
	}
	for _, p := range r.FatContentByTier {
		pivot = append(pivot, p.LowFat, p.Regular)
	}
	assertSumClose(t, total, years, "sales-by-year")
	assertSumClose(t, total, sizes, "sales-by-outlet-size")
	assertSumClose(t, total, scorecard, "outlet-type-scorecard")
	assertSumClose(t, total, pivot, "fat-content-by-tier")
	assertSumClose(t, decimal.NewFromInt(100), shares, "outlet size percentages")

	// every raw spelling is folded into the two canonical labels
	require.Len(t, r.SalesByFatContent, 2)
	assert.Equal(t, sales.LowFat, r.SalesByFatContent[0].Key)
	assert.Equal(t, sales.Regular, r.SalesByFatContent[1].Key)
	assert.Equal(t, []string{sales.LowFat, sales.Regular}, r.Profile.FatContentLabels)
}

func TestBuildIsDeterministic(t *testing.T) {
	records := testutil.NewRecordGenerator(7).Records(200)

	first, err := Build(context.Background(), records)
	require.NoError(t, err)
	second, err := Build(context.Background(), testutil.NewRecordGenerator(7).Records(200))
	require.NoError(t, err)

	for _, name := range ViewNames() {
		a, err := first.View(name)
		require.NoError(t, err)
		b, err := second.View(name)
		require.NoError(t, err)
		assert.Equal(t, a.Rows, b.Rows, name)
	}
}
