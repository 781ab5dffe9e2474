package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/report"
	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []sales.Record {
	d := decimal.RequireFromString
	return []sales.Record{
		{ItemFatContent: "LF", ItemIdentifier: "FDA15", ItemType: "Dairy", OutletEstablishmentYear: 1999, OutletIdentifier: "OUT049", OutletLocationType: "Tier 1", OutletSize: "Medium", OutletType: "Supermarket Type1", ItemVisibility: d("0.016"), TotalSales: d("3735.14"), Rating: d("5")},
		{ItemFatContent: "reg", ItemIdentifier: "DRC01", ItemType: "Soft Drinks", OutletEstablishmentYear: 2009, OutletIdentifier: "OUT018", OutletLocationType: "Tier 3", OutletSize: "Medium", OutletType: "Supermarket Type2", ItemVisibility: d("0.019"), TotalSales: d("443.42"), Rating: d("3.9")},
	}
}

func staticSource(t *testing.T) ReportSource {
	rep, err := report.Build(context.Background(), testRecords(), report.WithSource("test"))
	require.NoError(t, err)
	return func(context.Context) (*report.Report, error) { return rep, nil }
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListViews(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := get(t, s.Handler(), "/api/views")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var views []report.ViewInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, len(report.ViewNames()))
	assert.Equal(t, "total-sales", views[0].Name)
}

func TestGetView(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := get(t, s.Handler(), "/api/views/sales-by-fat-content")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID   string          `json:"run_id"`
		View    report.ViewInfo `json:"view"`
		Columns []string        `json:"columns"`
		Rows    [][]string      `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, "sales-by-fat-content", body.View.Name)
	assert.Equal(t, [][]string{{"Low Fat", "3735.14"}, {"Regular", "443.42"}}, body.Rows)
}

func TestGetViewFormats(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := get(t, s.Handler(), "/api/views/sales-by-year?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Outlet Establishment Year,Total Sales\n1999,3735.14\n2009,443.42\n", rec.Body.String())

	rec = get(t, s.Handler(), "/api/views/sales-by-year?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "view: sales-by-year")

	rec = get(t, s.Handler(), "/api/views/sales-by-year?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownView(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := get(t, s.Handler(), "/api/views/sales-by-weather")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(errors.ErrCodeViewNotFound), body.Error.Code)
	assert.Equal(t, "sales-by-weather", body.Error.Context["view"])
	assert.NotEmpty(t, body.Error.Suggestions)
}

func TestGetReport(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := get(t, s.Handler(), "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "test", doc["source"])
	assert.EqualValues(t, 2, doc["record_count"])

	rec = get(t, s.Handler(), "/api/report?format=table")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Outlet Type Scorecard")
}

func TestSourceFailure(t *testing.T) {
	source := func(context.Context) (*report.Report, error) {
		return nil, errors.ConnectionError("Failed to connect to warehouse", fmt.Errorf("connection refused"))
	}
	s := New(Config{}, source, nil)

	rec := get(t, s.Handler(), "/api/report")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, s.Handler(), "/api/views/total-sales")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	health := observability.NewHealthManager(time.Second, nil)
	health.RegisterCheck(observability.CheckFunc{
		CheckName: "dataset",
		Critical:  true,
		Fn:        func(context.Context) error { return nil },
	})
	s := New(Config{}, staticSource(t), health)

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status": "UP"`)

	health.RegisterCheck(observability.CheckFunc{
		CheckName: "warehouse",
		Critical:  true,
		Fn:        func(context.Context) error { return fmt.Errorf("ping failed") },
	})
	rec = get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndInstrumentation(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	counter := observability.HTTPRequests.WithLabelValues("/api/views/{name}", "404")
	before := testutil.ToFloat64(counter)

	get(t, s.Handler(), "/api/views/nope")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grocerybi_http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(Config{}, staticSource(t), nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{ShutdownTimeout: time.Second}, staticSource(t), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/views"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
