package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		// second row is a null holiday row; timestamps are out of order
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1704295800,1704209400,1704382200],
			"indicators":{"quote":[{
				"open":[101,100,null],
				"high":[103,102,null],
				"low":[99,98,null],
				"close":[102,101,null],
				"volume":[2000,1000,null]
			}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	f.Now = func() time.Time { return time.Date(2024, 1, 5, 21, 0, 0, 0, time.UTC) }
	bars, err := f.FetchDailyBars(context.Background(), "SPX", 300)
	require.NoError(t, err)

	assert.Equal(t, "/^GSPC", gotPath)
	assert.Equal(t, "1y", gotRange)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bars[1].Time)
	assert.Equal(t, 2000.0, bars[1].Volume)
}

func TestYahooFetcher_TrimsToRequestedDays(t *testing.T) {
	end := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(-5, 0, 0)
	var stamps, closes []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		stamps = append(stamps, fmt.Sprint(d.Add(14*time.Hour).Unix()))
		closes = append(closes, "100")
	}
	row := strings.Join(closes, ",")

	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{
			"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
			strings.Join(stamps, ","), row, row, row, row, row)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	f.Now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	bars, err := f.FetchDailyBars(context.Background(), "GOOGL", 1095)
	require.NoError(t, err)

	assert.Equal(t, "5y", gotRange)
	require.NotEmpty(t, bars)
	assert.Equal(t, time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, end, bars[len(bars)-1].Time)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	_, err := f.FetchDailyBars(context.Background(), "AAPL", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRESTFetcher(t *testing.T) {
	var auth, symbol, limit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/daily", r.URL.Path)
		auth = r.Header.Get("Authorization")
		symbol = r.URL.Query().Get("symbol")
		limit = r.URL.Query().Get("limit")
		fmt.Fprint(w, `[
			{"timestamp":1704326400,"open":11,"high":12,"low":10,"close":11.5,"volume":10},
			{"timestamp":1704153600,"open":9,"high":10,"low":8,"close":9.5,"volume":10},
			{"timestamp":1704240000,"open":10,"high":11,"low":9,"close":10.5,"volume":10}
		]`)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", 2)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "MSFT", symbol)
	assert.Equal(t, "2", limit)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 11.5, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestRESTFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "")
	_, err := f.FetchDailyBars(context.Background(), "MSFT", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
