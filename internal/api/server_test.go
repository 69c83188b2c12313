package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/collector"
	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
	"StockPredictor/internal/recorder"
	"StockPredictor/internal/strategy"
)

var testEnd = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, f collector.Fetcher, rec recorder.Recorder) *httptest.Server {
	t.Helper()
	return newCollectorServer(t, f, rec, func(*collector.Collector) {})
}

func newCollectorServer(t *testing.T, f collector.Fetcher, rec recorder.Recorder, setup func(*collector.Collector)) *httptest.Server {
	t.Helper()
	m := metrics.New()
	col := collector.NewCollector(f, calculator.DefaultParams(), strategy.DefaultThresholds(), m, zap.NewNop())
	setup(col)
	srv := httptest.NewServer(NewServer(col, rec, m, 300, zap.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e map[string]string
	require.NoError(t, json.Unmarshal(body, &e))
	return e["error"]
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestAnalysis(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	resp, body := get(t, srv.URL+"/api/v1/analysis/googl?days=260")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var a model.Analysis
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Equal(t, "GOOGL", a.Symbol)
	assert.Equal(t, 260, a.Bars)
	assert.Equal(t, model.TriggerAPI, a.TriggerType)
	assert.True(t, a.Indicators.RSI.Defined())
	assert.True(t, a.Indicators.SMA[200].Defined())
	assert.Equal(t, testEnd, a.Indicators.Date)
}

func TestAnalysis_BadQuery(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	for _, path := range []string{
		"/api/v1/analysis/GOOGL?days=abc",
		"/api/v1/analysis/GOOGL?days=0",
		"/api/v1/analysis/GOOGL?days=99999",
		"/api/v1/analysis/GO%20OGL",
		"/api/v1/analysis/GOOGL/rows?limit=-1",
	} {
		resp, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.NotEmpty(t, errorMessage(t, body), path)
	}
}

func TestAnalysis_InsufficientHistory(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	resp, body := get(t, srv.URL+"/api/v1/analysis/GOOGL?days=10")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "insufficient price history")
}

func TestAnalysis_FetchFailure(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Err: errors.New("yahoo: status 503")}, nil)
	resp, body := get(t, srv.URL+"/api/v1/analysis/GOOGL")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "status 503")
}

func TestRows(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)

	resp, body := get(t, srv.URL+"/api/v1/analysis/GOOGL/rows")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Symbol  string   `json:"symbol"`
		Columns []string `json:"columns"`
		Rows    []struct {
			Date   string     `json:"date"`
			Values []*float64 `json:"values"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "GOOGL", out.Symbol)
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume", "SMA_20", "SMA_50", "RSI", "MACD"}, out.Columns)
	require.Len(t, out.Rows, 10)
	assert.Equal(t, "2024-06-28", out.Rows[9].Date)
	require.Len(t, out.Rows[9].Values, 9)
	require.NotNil(t, out.Rows[9].Values[3])

	_, body = get(t, srv.URL+"/api/v1/analysis/GOOGL/rows?limit=3")
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Rows, 3)
}

func TestRows_ConfiguredWindows(t *testing.T) {
	srv := newCollectorServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil, func(c *collector.Collector) {
		c.Params.SMAWindows = []int{10, 30}
	})

	resp, body := get(t, srv.URL+"/api/v1/analysis/GOOGL/rows?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Columns []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume", "SMA_10", "SMA_30", "RSI", "MACD"}, out.Columns)
}

func TestProfile(t *testing.T) {
	srv := newCollectorServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil, func(c *collector.Collector) {
		c.Profiles = &collector.MockProfileFetcher{}
	})

	resp, body := get(t, srv.URL+"/api/v1/profile/googl")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var p model.CompanyProfile
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "GOOGL", p.Symbol)
	assert.Equal(t, "Technology", p.Sector)
	assert.Equal(t, 24.5, p.TrailingPE.Or(0))
	assert.False(t, p.ForwardPE.Defined())

	resp, body = get(t, srv.URL+"/api/v1/analysis/googl?days=120")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var a model.Analysis
	require.NoError(t, json.Unmarshal(body, &a))
	require.NotNil(t, a.Profile)
	assert.Equal(t, "GOOGL Inc.", a.Profile.Name)
}

func TestProfile_Errors(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	resp, _ := get(t, srv.URL+"/api/v1/profile/GOOGL")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	failing := newCollectorServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil, func(c *collector.Collector) {
		c.Profiles = &collector.MockProfileFetcher{Err: errors.New("quote summary down")}
	})
	resp, body := get(t, failing.URL+"/api/v1/profile/GOOGL")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "quote summary down")

	// a missing profile does not fail the analysis
	resp, body = get(t, failing.URL+"/api/v1/analysis/GOOGL?days=120")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var a model.Analysis
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Nil(t, a.Profile)
}

func TestCSV(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	resp, body := get(t, srv.URL+"/api/v1/analysis/msft/csv?days=60")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="MSFT_stock_data.csv"`, resp.Header.Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 61)
	assert.Equal(t, "Date", records[0][0])
	assert.Equal(t, "2024-06-28", records[60][0])
}

func TestHistory(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, rec)
	a := &model.Analysis{Symbol: "GOOGL", Source: "mock", Bars: 300, GeneratedAt: testEnd,
		Indicators: model.MarketIndicators{Date: testEnd, SMA: map[int]model.Value{}},
		Signal:     model.TradeSignal{Action: model.ActionHold, Zone: model.ZoneNeutral}}
	require.NoError(t, rec.RecordAnalysis(a))

	resp, body := get(t, srv.URL+"/api/v1/history/googl?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out []model.Analysis
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out, 1)
	assert.Equal(t, model.ActionHold, out[0].Signal.Action)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &collector.MockFetcher{Price: 100, End: testEnd}, nil)
	get(t, srv.URL+"/api/v1/analysis/GOOGL")

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `predictor_analyses_total{result="ok"} 1`)
	assert.Contains(t, string(body), `predictor_fetch_total{result="ok",source="mock"} 1`)
}
