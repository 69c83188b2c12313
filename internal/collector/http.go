package collector

import (
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockPredictor/internal/model"
)

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// dailyTime truncates a timestamp to its UTC calendar date.
func dailyTime(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// orderBars sorts chronologically, keeps the last bar of any repeated date
// and trims to the most recent limit bars.
func orderBars(bars []model.OHLCV, limit int) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// sinceBars drops the leading bars dated before cutoff. bars must be sorted.
func sinceBars(bars []model.OHLCV, cutoff time.Time) []model.OHLCV {
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(cutoff) })
	return bars[i:]
}
