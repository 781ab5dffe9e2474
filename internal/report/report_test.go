package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"grocerybi/internal/cache"
	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixture() []sales.Record {
	d := decimal.RequireFromString
	return []sales.Record{
		{ItemFatContent: "LF", ItemIdentifier: "FDA15", ItemType: "Dairy", OutletEstablishmentYear: 1999, OutletIdentifier: "OUT049", OutletLocationType: "Tier 1", OutletSize: "Medium", OutletType: "Supermarket Type1", ItemVisibility: d("0.02"), ItemWeight: decimal.NewNullDecimal(d("9.3")), TotalSales: d("100.25"), Rating: d("4")},
		{ItemFatContent: "reg", ItemIdentifier: "DRC01", ItemType: "Snack Foods", OutletEstablishmentYear: 2009, OutletIdentifier: "OUT018", OutletLocationType: "Tier 2", OutletType: "Grocery Store", ItemVisibility: d("0.05"), TotalSales: d("200.50"), Rating: d("5")},
		{ItemFatContent: "Low Fat", ItemIdentifier: "FDN15", ItemType: "Dairy", OutletEstablishmentYear: 1999, OutletIdentifier: "OUT049", OutletLocationType: "Tier 1", OutletSize: "Small", OutletType: "Supermarket Type1", ItemVisibility: d("0.01"), ItemWeight: decimal.NewNullDecimal(d("12.1")), TotalSales: d("50.00"), Rating: d("3")},
	}
}

var fixedClock = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

func TestBuild(t *testing.T) {
	r, err := Build(context.Background(), fixture(), WithSource("fixture.csv"), WithClock(fixedClock))
	require.NoError(t, err)

	_, err = uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.Equal(t, fixedClock(), r.GeneratedAt)
	assert.Equal(t, "fixture.csv", r.Source)

	assert.True(t, r.TotalSales.TotalSales.Equal(decimal.RequireFromString("350.75")))
	assert.True(t, r.AverageSales.Decimal.Equal(decimal.RequireFromString("116.92")))
	assert.Equal(t, 3, r.RecordCount)
	assert.True(t, r.AverageRating.Decimal.Equal(decimal.NewFromInt(4)))
	require.Len(t, r.SalesByFatContent, 2)
	assert.Equal(t, sales.LowFat, r.SalesByFatContent[0].Key)
	assert.Equal(t, 3, r.Profile.Records)
}

func TestBuildInputNotMutated(t *testing.T) {
	records := fixture()
	_, err := Build(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, "LF", records[0].ItemFatContent)
	assert.Equal(t, "reg", records[1].ItemFatContent)
}

func TestBuildWithAliases(t *testing.T) {
	r, err := Build(context.Background(), fixture(), WithAliases(map[string]string{"LF": "Low Fat"}))
	require.NoError(t, err)

	keys := make([]string, 0, len(r.SalesByFatContent))
	for _, g := range r.SalesByFatContent {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{sales.LowFat, "reg"}, keys)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, fixture())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReportBuild, errors.GetErrorCode(err))
}

func TestViewsCatalogue(t *testing.T) {
	names := ViewNames()
	assert.Equal(t, []string{
		"total-sales", "average-sales", "record-count", "average-rating",
		"sales-by-fat-content", "sales-by-item-type", "fat-content-by-tier",
		"sales-by-year", "sales-by-outlet-size", "sales-by-location",
		"outlet-type-scorecard", "profile",
	}, names)

	for _, v := range Views() {
		assert.NotEmpty(t, v.Title, v.Name)
		assert.NotEmpty(t, v.Description, v.Name)
	}

	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)
	tables := r.Tables()
	require.Len(t, tables, len(names))
	for i, table := range tables {
		assert.Equal(t, names[i], table.Name)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Columns), table.Name)
		}
	}
}

func TestView(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	share, err := r.View("sales-by-outlet-size")
	require.NoError(t, err)
	assert.Equal(t, []string{"Outlet Size", "Total Sales", "Sales %"}, share.Columns)
	assert.Equal(t, [][]string{
		{Absent, "200.50", "57.16"},
		{"Medium", "100.25", "28.58"},
		{"Small", "50.00", "14.26"},
	}, share.Rows)

	tiers, err := r.View("fat-content-by-tier")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Tier 1", "150.25", "0.00"},
		{"Tier 2", "0.00", "200.50"},
	}, tiers.Rows)

	_, err = r.View("sales-by-weather")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeViewNotFound, errors.GetErrorCode(err))
}

func TestEmptyDatasetRendersAbsent(t *testing.T) {
	r, err := Build(context.Background(), nil)
	require.NoError(t, err)

	avg, err := r.View("average-sales")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{Absent}}, avg.Rows)

	share, err := r.View("sales-by-outlet-size")
	require.NoError(t, err)
	assert.Empty(t, share.Rows)

	total, err := r.View("total-sales")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"0", "0.00"}}, total.Rows)
}

func TestEncodeDecode(t *testing.T) {
	r, err := Build(context.Background(), fixture(), WithClock(fixedClock))
	require.NoError(t, err)

	data, err := r.Encode()
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, back.RunID)
	assert.True(t, back.GeneratedAt.Equal(r.GeneratedAt))

	for _, name := range ViewNames() {
		want, err := r.View(name)
		require.NoError(t, err)
		got, err := back.View(name)
		require.NoError(t, err)
		assert.Equal(t, want.Rows, got.Rows, name)
	}

	_, err = Decode([]byte("{not json"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCacheCorrupted, errors.GetErrorCode(err))
}

func TestBuildCached(t *testing.T) {
	c := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: 2})
	defer c.Close()
	ctx := context.Background()

	first, hit, err := BuildCached(ctx, c, time.Minute, fixture())
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := BuildCached(ctx, c, time.Minute, fixture())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.RunID, second.RunID)

	third, hit, err := BuildCached(ctx, c, time.Minute, fixture()[:2])
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotEqual(t, first.RunID, third.RunID)
}

func TestBuildCachedRebuildsCorruptEntry(t *testing.T) {
	c := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: 2})
	defer c.Close()
	ctx := context.Background()

	records := fixture()
	require.NoError(t, c.Set(ctx, cache.Key(records, nil), []byte("garbage"), time.Minute))

	r, hit, err := BuildCached(ctx, c, time.Minute, records)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, r.RecordCount)
}

func TestRenderTableFormat(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, r, RenderOptions{Format: FormatTable}))
	out := buf.String()

	assert.Contains(t, out, "Sales Share by Outlet Size")
	assert.Contains(t, out, "Total Sales")
	assert.Contains(t, out, "57.16")
	assert.Contains(t, out, Absent)
	assert.NotContains(t, out, "\x1b[", "color disabled")
}

func TestRenderJSON(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	var buf bytes.Buffer
	table, err := r.View("sales-by-item-type")
	require.NoError(t, err)
	require.NoError(t, RenderTable(&buf, table, RenderOptions{Format: FormatJSON}))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Snack Foods", rows[0]["key"])
	assert.Equal(t, "200.5", rows[0]["total_sales"])

	buf.Reset()
	require.NoError(t, RenderReport(&buf, r, RenderOptions{Format: FormatJSON}))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, r.RunID, doc["run_id"])
	assert.Contains(t, doc, "outlet_type_scorecard")
}

func TestRenderYAML(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)
	table, err := r.View("sales-by-year")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, table, RenderOptions{Format: FormatYAML}))

	var doc []struct {
		View  string              `yaml:"view"`
		Title string              `yaml:"title"`
		Rows  []map[string]string `yaml:"rows"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "sales-by-year", doc[0].View)
	require.Len(t, doc[0].Rows, 2)
	assert.Equal(t, "1999", doc[0].Rows[0]["Outlet Establishment Year"])
	assert.Equal(t, "150.25", doc[0].Rows[0]["Total Sales"])

	// column order is preserved in the document
	assert.Less(t, strings.Index(buf.String(), "Outlet Establishment Year"), strings.Index(buf.String(), "Total Sales"))
}

func TestRenderYAMLKeepsFixedPlaces(t *testing.T) {
	table := Table{
		ViewInfo: ViewInfo{Name: "total-sales", Title: "Total Sales"},
		Columns:  []string{"Total Sales", "Records"},
		Rows:     [][]string{{"1200.00", "3"}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, table, RenderOptions{Format: FormatYAML}))
	assert.Contains(t, buf.String(), `Total Sales: "1200.00"`)

	var doc []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc, 1)
	rows, ok := doc[0]["rows"].([]interface{})
	require.True(t, ok)
	row, ok := rows[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "1200.00", row["Total Sales"])
	assert.Equal(t, "3", row["Records"])
}

func TestRenderCSV(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)
	table, err := r.View("outlet-type-scorecard")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, table, RenderOptions{Format: FormatCSV}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, table.Columns, rows[0])
	assert.Equal(t, []string{"Grocery Store", "200.50", "201", "1", "5.00", "0.05"}, rows[1])
}

func TestRenderViews(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderViews(&buf, Views(), RenderOptions{Format: FormatTable}))
	assert.Contains(t, buf.String(), "outlet-type-scorecard")

	buf.Reset()
	require.NoError(t, RenderViews(&buf, Views(), RenderOptions{Format: FormatJSON}))
	var infos []ViewInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	assert.Len(t, infos, len(catalogue))
}

func TestRenderUnknownFormat(t *testing.T) {
	r, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	err = RenderReport(&bytes.Buffer{}, r, RenderOptions{Format: "xml"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownFormat, errors.GetErrorCode(err))
}
