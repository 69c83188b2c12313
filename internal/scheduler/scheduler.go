package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockPredictor/internal/collector"
	"StockPredictor/internal/exporter"
	"StockPredictor/internal/model"
	"StockPredictor/internal/notifier"
	"StockPredictor/internal/recorder"
	"StockPredictor/internal/strategy"
	"StockPredictor/internal/tracker"
)

// Run statuses stored with every attempt.
const (
	StatusOK                  = "OK"
	StatusFetchError          = "FETCH_ERROR"
	StatusInsufficientHistory = "INSUFFICIENT_HISTORY"
	StatusUndefined           = "INDICATORS_UNDEFINED"
	StatusError               = "ERROR"
)

const sendRetries = 3

// Scheduler manages the cron task and on-demand runs over the watchlist.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier // nil disables notifications
	Recorder  recorder.Recorder
	Tracker   *tracker.Tracker // nil disables signal change tracking
	Watchlist []string
	Days      int
	DailyCron string
	Ctx       context.Context

	mu  sync.Mutex // one watchlist run at a time
	wg  sync.WaitGroup
	log *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, watchlist []string, days int, log *zap.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Days:      days,
		Ctx:       ctx,
		log:       log.With(zap.String("component", "scheduler")),
	}
}

// RegisterAll registers the daily watchlist task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	s.DailyCron = dailyCron
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.String("daily_cron", s.DailyCron), zap.Strings("watchlist", s.Watchlist))
}

// Stop stops the cron scheduler and waits for running tasks, including
// those started by RunAsync, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes the daily task immediately.
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

// RunAsync executes the daily task in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dailyTask()
	}()
}

// RunStatus maps a run error to its stored status.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, collector.ErrFetch):
		return StatusFetchError
	case errors.Is(err, collector.ErrInsufficientHistory):
		return StatusInsufficientHistory
	case errors.Is(err, strategy.ErrIndicatorsUndefined):
		return StatusUndefined
	default:
		return StatusError
	}
}

// RunSymbol analyses one symbol and records the attempt.
func (s *Scheduler) RunSymbol(ctx context.Context, symbol string, trigger model.TriggerType) (*collector.Result, error) {
	res, err := s.Collector.Collect(ctx, symbol, s.Days, trigger)

	evt := &recorder.RunEvent{
		Symbol:  strings.ToUpper(strings.TrimSpace(symbol)),
		Trigger: trigger,
		Status:  RunStatus(err),
	}
	if err != nil {
		evt.Error = err.Error()
	} else {
		evt.Bars = res.Analysis.Bars
		if rerr := s.Recorder.RecordAnalysis(res.Analysis); rerr != nil {
			s.Collector.Metrics.RecorderError()
			s.log.Error("record analysis failed", zap.String("symbol", evt.Symbol), zap.Error(rerr))
		}
	}
	if rerr := s.Recorder.RecordRun(evt); rerr != nil {
		s.Collector.Metrics.RecorderError()
		s.log.Error("record run failed", zap.String("symbol", evt.Symbol), zap.Error(rerr))
	}
	return res, err
}

// Report formats a result with its most recent rows over the collector's
// configured SMA windows.
func (s *Scheduler) Report(res *collector.Result, style notifier.Style) string {
	cols := exporter.TableColumns(s.Collector.Params.SMAWindows)
	tbl, err := exporter.LastRows(res.Series, exporter.DefaultRows, cols)
	if err != nil {
		s.log.Warn("row table unavailable", zap.String("symbol", res.Analysis.Symbol), zap.Error(err))
	}
	return notifier.FormatAnalysisReport(res.Analysis, tbl, style)
}

func (s *Scheduler) dailyTask() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("running daily task", zap.Int("symbols", len(s.Watchlist)))
	failed := 0
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		res, err := s.RunSymbol(s.Ctx, symbol, model.TriggerScheduled)
		if err != nil {
			failed++
			s.log.Error("daily analysis failed", zap.String("symbol", symbol), zap.Error(err))
			s.trySend(notifier.FormatError(symbol, err, notifier.StyleHTML))
			continue
		}
		report := s.Report(res, notifier.StyleHTML)
		if s.Tracker != nil {
			tr := s.Tracker.Observe(res.Analysis)
			if tr.Changed {
				s.log.Info("signal changed",
					zap.String("symbol", tr.Symbol),
					zap.String("from", string(tr.Previous)),
					zap.String("to", string(tr.Current)))
			}
			report = notifier.FormatTransition(tr, notifier.StyleHTML) + "\n\n" + report
		}
		s.trySend(report)
	}
	s.log.Info("daily task finished", zap.Int("symbols", len(s.Watchlist)), zap.Int("failed", failed))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	// Telegram appends @botname to commands in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/signal":
		if len(fields) < 2 {
			return "Usage: /signal SYMBOL"
		}
		res, err := s.RunSymbol(ctx, fields[1], model.TriggerCommand)
		if err != nil {
			return notifier.FormatError(strings.ToUpper(fields[1]), err, notifier.StyleHTML)
		}
		return s.Report(res, notifier.StyleHTML)
	case "/info":
		if len(fields) < 2 {
			return "Usage: /info SYMBOL"
		}
		symbol := strings.ToUpper(fields[1])
		p, err := s.Collector.Profile(ctx, symbol)
		if err != nil {
			return notifier.FormatError(symbol, err, notifier.StyleHTML)
		}
		return notifier.FormatProfile(p, notifier.StyleHTML)
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist, s.DailyCron, notifier.StyleHTML)
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.log.Error("send notification failed", zap.Error(err))
	}
}
