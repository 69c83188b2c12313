package recorder

import (
	"time"

	"StockPredictor/internal/model"
)

// RunEvent records the outcome of one analysis attempt, successful or not.
type RunEvent struct {
	Symbol  string
	Trigger model.TriggerType
	Status  string // "OK", "FETCH_ERROR", "INSUFFICIENT_HISTORY", "ERROR"
	Bars    int
	Error   string
}

// AnalysisRecord is a stored analysis snapshot.
type AnalysisRecord struct {
	ID         int64
	RecordedAt time.Time
	Analysis   model.Analysis
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	RecordRun(evt *RunEvent) error
	// Recent returns up to limit snapshots for symbol, newest first.
	Recent(symbol string, limit int) ([]AnalysisRecord, error)
	Close() error
}
