package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/collector"
	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
	"StockPredictor/internal/notifier"
	"StockPredictor/internal/recorder"
	"StockPredictor/internal/strategy"
	"StockPredictor/internal/tracker"
)

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (c *captureNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return c.err
}

// symbolFetcher serves mock bars, failing for symbols listed in fail.
type symbolFetcher struct {
	fail map[string]error
}

func (f *symbolFetcher) Name() string { return "mock" }

func (f *symbolFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err, ok := f.fail[symbol]; ok {
		return nil, err
	}
	return collector.GenerateMockBars(100, days, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)), nil
}

func newTestScheduler(t *testing.T, f collector.Fetcher, watchlist ...string) (*Scheduler, *captureNotifier, *recorder.SQLiteRecorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "sched.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	col := collector.NewCollector(f, calculator.DefaultParams(), strategy.DefaultThresholds(), metrics.New(), zap.NewNop())
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), col, n, rec, watchlist, 300, zap.NewNop())
	return s, n, rec
}

func TestRunNow_Watchlist(t *testing.T) {
	f := &symbolFetcher{fail: map[string]error{"BAD": errors.New("timeout")}}
	s, n, rec := newTestScheduler(t, f, "GOOGL", "BAD", "MSFT")

	s.RunNow()

	require.Len(t, n.msgs, 3)
	assert.Contains(t, n.msgs[0], "<b>GOOGL</b>")
	assert.Contains(t, n.msgs[0], "Last 10 rows:")
	assert.Contains(t, n.msgs[1], "BAD")
	assert.Contains(t, n.msgs[1], "timeout")
	assert.Contains(t, n.msgs[2], "<b>MSFT</b>")

	recs, err := rec.Recent("GOOGL", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TriggerScheduled, recs[0].Analysis.TriggerType)

	bad, err := rec.Recent("BAD", 5)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestRunNow_NotifierFailureDoesNotStop(t *testing.T) {
	s, n, rec := newTestScheduler(t, &symbolFetcher{}, "A", "B")
	n.err = errors.New("telegram down")

	s.RunNow()

	assert.Len(t, n.msgs, 2)
	recs, err := rec.Recent("B", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRunNow_NilNotifier(t *testing.T) {
	s, _, rec := newTestScheduler(t, &symbolFetcher{}, "A")
	s.Notifier = nil
	s.RunNow()
	recs, err := rec.Recent("A", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRunNow_TracksSignal(t *testing.T) {
	s, n, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	tr, err := tracker.NewTracker(filepath.Join(t.TempDir(), "signals.json"), zap.NewNop())
	require.NoError(t, err)
	s.Tracker = tr

	s.RunNow()
	s.RunNow()

	require.Len(t, n.msgs, 2)
	assert.True(t, strings.HasPrefix(n.msgs[0], "🆕 First signal for GOOGL"))
	assert.Contains(t, n.msgs[1], "unchanged for 1 sessions")

	st, ok := tr.Get("GOOGL")
	require.True(t, ok)
	assert.Len(t, st.RecentRSI, 1)
}

func TestReport_ConfiguredWindows(t *testing.T) {
	s, _, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	s.Collector.Params.SMAWindows = []int{10, 30}

	res, err := s.Collector.Collect(context.Background(), "GOOGL", 120, model.TriggerManual)
	require.NoError(t, err)

	report := s.Report(res, notifier.StylePlain)
	assert.Contains(t, report, "Last 10 rows:")
	assert.Contains(t, report, "SMA_10")
	assert.Contains(t, report, "SMA_30")
	assert.NotContains(t, report, "SMA_50")
}

// gatedFetcher blocks until release is closed.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) Name() string { return "gated" }

func (f *gatedFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	close(f.started)
	<-f.release
	return collector.GenerateMockBars(100, days, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)), nil
}

func TestStop_WaitsForRunAsync(t *testing.T) {
	f := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	s, n, rec := newTestScheduler(t, f, "GOOGL")
	require.NoError(t, s.RegisterAll("0 0 0 1 1 *"))
	s.Start()

	s.RunAsync()
	<-f.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Len(t, n.msgs, 1)
	recs, err := rec.Recent("GOOGL", 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, StatusOK, RunStatus(nil))
	assert.Equal(t, StatusFetchError, RunStatus(fmt.Errorf("%w: x", collector.ErrFetch)))
	assert.Equal(t, StatusInsufficientHistory, RunStatus(fmt.Errorf("wrap: %w", collector.ErrInsufficientHistory)))
	assert.Equal(t, StatusUndefined, RunStatus(fmt.Errorf("classify: %w", strategy.ErrIndicatorsUndefined)))
	assert.Equal(t, StatusError, RunStatus(errors.New("other")))
}

func TestHandleCommand(t *testing.T) {
	s, _, rec := newTestScheduler(t, &symbolFetcher{}, "GOOGL", "MSFT")
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5"))
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/signal aapl")
	assert.Contains(t, reply, "<b>AAPL</b>")
	assert.Contains(t, reply, "Signal:")
	recs, err := rec.Recent("AAPL", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TriggerCommand, recs[0].Analysis.TriggerType)

	assert.Contains(t, s.HandleCommand(ctx, "/signal@predictor_bot TSLA"), "<b>TSLA</b>")
	assert.Equal(t, "Usage: /signal SYMBOL", s.HandleCommand(ctx, "/signal"))

	wl := s.HandleCommand(ctx, "/watchlist")
	assert.Contains(t, wl, "GOOGL")
	assert.Contains(t, wl, "MSFT")
	assert.Contains(t, wl, "0 30 22 * * 1-5")

	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/signal SYMBOL")
	assert.Contains(t, s.HandleCommand(ctx, ""), "/watchlist")
}

func TestHandleCommand_Info(t *testing.T) {
	s, _, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/info GOOGL"), "company profiles not configured")

	s.Collector.Profiles = &collector.MockProfileFetcher{}
	reply := s.HandleCommand(ctx, "/info googl")
	assert.Contains(t, reply, "<b>GOOGL Inc.</b> (GOOGL)")
	assert.Contains(t, reply, "Market cap: $2.10T")
	assert.Equal(t, "Usage: /info SYMBOL", s.HandleCommand(ctx, "/info"))
}

func TestHandleCommand_InsufficientHistory(t *testing.T) {
	s, _, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	s.Days = 10
	reply := s.HandleCommand(context.Background(), "/signal GOOGL")
	assert.Contains(t, reply, "insufficient price history")
}

func TestRegisterAll_InvalidCron(t *testing.T) {
	s, _, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	assert.Error(t, s.RegisterAll("not a cron"))
}

func TestStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t, &symbolFetcher{}, "GOOGL")
	require.NoError(t, s.RegisterAll("0 0 0 1 1 *"))
	s.Start()
	assert.Len(t, s.Cron.Entries(), 1)
	s.Stop()
}
