package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
)

const yahooSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/"

const yahooSummaryModules = "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData"

// ProfileFetcher retrieves company information for a symbol.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error)
	Name() string
}

// YahooProfileFetcher implements ProfileFetcher using the Yahoo quoteSummary API.
type YahooProfileFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string
}

// NewYahooProfileFetcher shares the ticker mapping of the chart fetcher.
func NewYahooProfileFetcher(proxyURL string) *YahooProfileFetcher {
	return &YahooProfileFetcher{
		Client:    newHTTPClient(proxyURL),
		BaseURL:   yahooSummaryURL,
		SymbolMap: NewYahooFetcher("").SymbolMap,
	}
}

func (f *YahooProfileFetcher) Name() string { return "yahoo-profile" }

// yahooNum is the {"raw": 1.5, "fmt": "1.50"} wrapper; an empty object means unreported.
type yahooNum struct {
	Raw *float64 `json:"raw"`
}

func (n yahooNum) value() model.Value {
	if n.Raw == nil {
		return model.Undefined
	}
	return model.Some(*n.Raw)
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector            string `json:"sector"`
				Industry          string `json:"industry"`
				Country           string `json:"country"`
				FullTimeEmployees int64  `json:"fullTimeEmployees"`
				Website           string `json:"website"`
				Summary           string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string   `json:"longName"`
				ShortName string   `json:"shortName"`
				MarketCap yahooNum `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE    yahooNum `json:"trailingPE"`
				ForwardPE     yahooNum `json:"forwardPE"`
				DividendYield yahooNum `json:"dividendYield"`
				High52w       yahooNum `json:"fiftyTwoWeekHigh"`
				Low52w        yahooNum `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
			KeyStats struct {
				TrailingEPS yahooNum `json:"trailingEps"`
				ForwardEPS  yahooNum `json:"forwardEps"`
				PEGRatio    yahooNum `json:"pegRatio"`
				PriceToBook yahooNum `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			Financial struct {
				ProfitMargins  yahooNum `json:"profitMargins"`
				ReturnOnEquity yahooNum `json:"returnOnEquity"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchProfile returns the company profile of symbol.
func (f *YahooProfileFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	ticker := symbol
	if mapped, ok := f.SymbolMap[symbol]; ok {
		ticker = mapped
	}
	u := f.BaseURL + url.PathEscape(ticker) + "?modules=" + url.QueryEscape(yahooSummaryModules)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo profile read body: %w", err)
	}

	var summary yahooSummary
	// error payloads come with a non-200 status, so decode before checking it
	decodeErr := json.Unmarshal(body, &summary)
	if qe := summary.QuoteSummary.Error; decodeErr == nil && qe != nil {
		return nil, fmt.Errorf("yahoo profile api error: %s", qe.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo profile: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo profile decode: %w", decodeErr)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo profile: no data returned for %s", symbol)
	}

	r := summary.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	if name == "" {
		name = symbol
	}
	return &model.CompanyProfile{
		Symbol:        symbol,
		Name:          name,
		Sector:        r.AssetProfile.Sector,
		Industry:      r.AssetProfile.Industry,
		Country:       r.AssetProfile.Country,
		Employees:     r.AssetProfile.FullTimeEmployees,
		Website:       r.AssetProfile.Website,
		Summary:       r.AssetProfile.Summary,
		MarketCap:     r.Price.MarketCap.value(),
		TrailingPE:    r.SummaryDetail.TrailingPE.value(),
		ForwardPE:     r.SummaryDetail.ForwardPE.value(),
		TrailingEPS:   r.KeyStats.TrailingEPS.value(),
		ForwardEPS:    r.KeyStats.ForwardEPS.value(),
		PEGRatio:      r.KeyStats.PEGRatio.value(),
		PriceToBook:   r.KeyStats.PriceToBook.value(),
		ProfitMargin:  r.Financial.ProfitMargins.value(),
		ReturnOnEq:    r.Financial.ReturnOnEquity.value(),
		DividendYield: r.SummaryDetail.DividendYield.value(),
		High52w:       r.SummaryDetail.High52w.value(),
		Low52w:        r.SummaryDetail.Low52w.value(),
	}, nil
}

// MockProfileFetcher returns a fixed profile for development and testing.
type MockProfileFetcher struct {
	Err   error
	Calls int
}

func (m *MockProfileFetcher) Name() string { return "mock-profile" }

func (m *MockProfileFetcher) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.CompanyProfile{
		Symbol:        symbol,
		Name:          symbol + " Inc.",
		Sector:        "Technology",
		Industry:      "Internet Content & Information",
		Country:       "United States",
		Employees:     180000,
		MarketCap:     model.Some(2.1e12),
		TrailingPE:    model.Some(24.5),
		PriceToBook:   model.Some(6.8),
		DividendYield: model.Some(0.005),
	}, nil
}

// CachedProfileFetcher caches profiles in Redis the way CachedFetcher caches bars.
type CachedProfileFetcher struct {
	next    ProfileFetcher
	client  goredis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewCachedProfileFetcher wraps next with a cache backed by client.
func NewCachedProfileFetcher(next ProfileFetcher, client goredis.Cmdable, ttl time.Duration, m *metrics.Metrics, log *zap.Logger) *CachedProfileFetcher {
	return &CachedProfileFetcher{
		next:    next,
		client:  client,
		ttl:     ttl,
		metrics: m,
		log:     log.With(zap.String("component", "profile_cache")),
	}
}

func (c *CachedProfileFetcher) Name() string { return c.next.Name() + "+redis" }

func (c *CachedProfileFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	key := fmt.Sprintf("profile:%s:%s", c.next.Name(), strings.ToUpper(symbol))

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.CompanyProfile
		if err := json.Unmarshal(data, &p); err == nil {
			c.metrics.CacheHit()
			return &p, nil
		}
		c.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.CacheMiss()

	p, err := c.next.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}
