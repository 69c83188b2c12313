// Package tracker remembers the last signal of every symbol across runs so
// reports can point out when a signal flips.
package tracker

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockPredictor/internal/model"
)

// recentRSILen bounds the RSI history kept per symbol.
const recentRSILen = 12

// Transition describes how an observed signal relates to the previous one.
type Transition struct {
	Symbol   string
	Previous model.Action // empty on the first observation
	Current  model.Action
	Changed  bool
	Streak   int
}

// Tracker holds per-symbol signal state with concurrency safety. An empty
// file path keeps the state in memory only.
type Tracker struct {
	mu       sync.Mutex
	state    *model.SignalState
	filePath string
	log      *zap.Logger
}

// NewTracker creates a Tracker, loading state from disk.
func NewTracker(filePath string, log *zap.Logger) (*Tracker, error) {
	state := &model.SignalState{Symbols: map[string]*model.SymbolState{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Tracker{
		state:    state,
		filePath: filePath,
		log:      log.With(zap.String("component", "tracker")),
	}, nil
}

// Get returns a copy of the state of symbol.
func (t *Tracker) Get(symbol string) (model.SymbolState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.state.Symbols[strings.ToUpper(symbol)]
	if !ok {
		return model.SymbolState{}, false
	}
	out := *st
	out.RecentRSI = append([]float64(nil), st.RecentRSI...)
	return out, true
}

// Observe records the signal of an analysis. Re-running the same session
// replaces the stored reading without extending the streak.
func (t *Tracker) Observe(a *model.Analysis) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	symbol := strings.ToUpper(a.Symbol)
	action := a.Signal.Action
	barDate := a.Indicators.Date
	tr := Transition{Symbol: symbol, Current: action}

	st, ok := t.state.Symbols[symbol]
	switch {
	case !ok:
		st = &model.SymbolState{}
		t.state.Symbols[symbol] = st
	case st.LastBarDate.Equal(barDate):
		// Same session: report against the earlier reading, but the streak
		// only depends on the previous session.
		tr.Previous = st.LastAction
		tr.Changed = st.LastAction != action
		if n := len(st.RecentRSI); n > 0 {
			st.RecentRSI = st.RecentRSI[:n-1]
		}
	case barDate.Before(st.LastBarDate):
		t.log.Warn("ignoring stale analysis",
			zap.String("symbol", symbol),
			zap.Time("bar_date", barDate),
			zap.Time("last_bar_date", st.LastBarDate))
		return Transition{Symbol: symbol, Previous: st.LastAction, Current: st.LastAction, Streak: st.Streak}
	default:
		tr.Previous = st.LastAction
		tr.Changed = st.LastAction != action
		st.PrevAction = st.LastAction
		st.PrevStreak = st.Streak
	}

	st.Streak = 1
	if st.PrevAction != "" && st.PrevAction == action {
		st.Streak = st.PrevStreak + 1
	}
	st.LastAction = action
	st.LastBarDate = barDate
	st.RecentRSI = append(st.RecentRSI, a.Signal.RSI)
	if len(st.RecentRSI) > recentRSILen {
		st.RecentRSI = st.RecentRSI[len(st.RecentRSI)-recentRSILen:]
	}
	st.UpdatedAt = time.Now().UTC()
	tr.Streak = st.Streak

	if err := t.save(); err != nil {
		t.log.Error("failed to save signal state", zap.Error(err))
	}
	return tr
}

func (t *Tracker) save() error {
	if t.filePath == "" {
		return nil
	}
	return SaveState(t.filePath, t.state)
}
