package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"StockPredictor/internal/model"
)

// SQLiteRecorder persists analysis snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read while scheduled runs write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With(zap.String("component", "recorder"))}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			source         TEXT,
			trigger_type   TEXT,
			bars           INTEGER,
			bar_date       INTEGER NOT NULL,
			open           REAL,
			high           REAL,
			low            REAL,
			close          REAL,
			volume         REAL,
			prev_close     REAL,
			change_abs     REAL,
			change_pct     REAL,
			sma_json       TEXT,
			volatility     REAL,
			ema_fast       REAL,
			ema_slow       REAL,
			macd           REAL,
			macd_signal    REAL,
			macd_histogram REAL,
			rsi            REAL,
			label_date     INTEGER,
			next_return    REAL,
			target         REAL,
			high_52w       REAL,
			low_52w        REAL,
			position_52w   REAL,
			action         TEXT,
			rsi_zone       TEXT,
			reason         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			trigger_type TEXT,
			status       TEXT,
			bars         INTEGER,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v model.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func fromNullable(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Undefined
	}
	return model.Some(n.Float64)
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	sma, err := json.Marshal(a.Indicators.SMA)
	if err != nil {
		return fmt.Errorf("encode sma: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ind := a.Indicators
	sig := a.Signal
	_, err = r.db.Exec(`INSERT INTO analyses
		(timestamp, symbol, source, trigger_type, bars, bar_date,
		 open, high, low, close, volume, prev_close, change_abs, change_pct,
		 sma_json, volatility, ema_fast, ema_slow, macd, macd_signal, macd_histogram, rsi,
		 label_date, next_return, target, high_52w, low_52w, position_52w,
		 action, rsi_zone, reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.GeneratedAt.Unix(), a.Symbol, a.Source, string(a.TriggerType), a.Bars, ind.Date.Unix(),
		ind.Open, ind.High, ind.Low, ind.Close, ind.Volume,
		nullable(ind.PrevClose), nullable(ind.Change), nullable(ind.ChangePct),
		string(sma), nullable(ind.Volatility), nullable(ind.EMAFast), nullable(ind.EMASlow),
		nullable(ind.MACD), nullable(ind.MACDSignal), nullable(ind.MACDHistogram), nullable(ind.RSI),
		ind.LabelDate.Unix(), nullable(ind.NextReturn), nullable(ind.Target),
		ind.High52w, ind.Low52w, ind.Position52w,
		string(sig.Action), string(sig.Zone), sig.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, symbol, trigger_type, status, bars, error)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, string(evt.Trigger), evt.Status, evt.Bars, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Recent(symbol string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT
		id, timestamp, symbol, source, trigger_type, bars, bar_date,
		open, high, low, close, volume, prev_close, change_abs, change_pct,
		sma_json, volatility, ema_fast, ema_slow, macd, macd_signal, macd_histogram, rsi,
		label_date, next_return, target, high_52w, low_52w, position_52w,
		action, rsi_zone, reason
		FROM analyses WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			rec                             AnalysisRecord
			ts, barDate, labelDate          int64
			trigger, smaJSON, action, zone  string
			prevClose, change, changePct    sql.NullFloat64
			vol, emaFast, emaSlow           sql.NullFloat64
			macd, macdSignal, macdHist, rsi sql.NullFloat64
			nextReturn, target              sql.NullFloat64
		)
		a := &rec.Analysis
		ind := &a.Indicators
		if err := rows.Scan(
			&rec.ID, &ts, &a.Symbol, &a.Source, &trigger, &a.Bars, &barDate,
			&ind.Open, &ind.High, &ind.Low, &ind.Close, &ind.Volume, &prevClose, &change, &changePct,
			&smaJSON, &vol, &emaFast, &emaSlow, &macd, &macdSignal, &macdHist, &rsi,
			&labelDate, &nextReturn, &target, &ind.High52w, &ind.Low52w, &ind.Position52w,
			&action, &zone, &a.Signal.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(smaJSON), &ind.SMA); err != nil {
			return nil, fmt.Errorf("decode sma: %w", err)
		}
		rec.RecordedAt = time.Unix(ts, 0).UTC()
		a.GeneratedAt = rec.RecordedAt
		a.TriggerType = model.TriggerType(trigger)
		ind.Date = time.Unix(barDate, 0).UTC()
		ind.LabelDate = time.Unix(labelDate, 0).UTC()
		ind.PrevClose = fromNullable(prevClose)
		ind.Change = fromNullable(change)
		ind.ChangePct = fromNullable(changePct)
		ind.Volatility = fromNullable(vol)
		ind.EMAFast = fromNullable(emaFast)
		ind.EMASlow = fromNullable(emaSlow)
		ind.MACD = fromNullable(macd)
		ind.MACDSignal = fromNullable(macdSignal)
		ind.MACDHistogram = fromNullable(macdHist)
		ind.RSI = fromNullable(rsi)
		ind.NextReturn = fromNullable(nextReturn)
		ind.Target = fromNullable(target)
		a.Signal.Action = model.Action(action)
		a.Signal.Zone = model.RSIZone(zone)
		a.Signal.RSI = ind.RSI.Or(0)
		a.Signal.MACD = ind.MACD.Or(0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
