package exporter

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"StockPredictor/internal/calculator"
	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// TablePlaces is the rounding applied to row tables.
const TablePlaces = 2

// DefaultRows is the number of recent rows shown in reports.
const DefaultRows = 10

// DefaultTableColumns are the columns of the recent-data table for the
// default SMA windows.
var DefaultTableColumns = TableColumns(calculator.DefaultParams().SMAWindows)

// TableColumns returns the recent-data table columns for the configured SMA
// windows: SMA_20 and SMA_50 when both are configured, otherwise the two
// shortest windows.
func TableColumns(windows []int) []string {
	cols := []string{"Open", "High", "Low", "Close", "Volume"}
	for _, w := range tableWindows(windows) {
		cols = append(cols, calculator.SMAColumn(w))
	}
	return append(cols, calculator.ColRSI, calculator.ColMACD)
}

func tableWindows(windows []int) []int {
	if slices.Contains(windows, 20) && slices.Contains(windows, 50) {
		return []int{20, 50}
	}
	sorted := slices.Clone(windows)
	slices.Sort(sorted)
	return sorted[:min(2, len(sorted))]
}

// TableRow is one dated row of a Table.
type TableRow struct {
	Date   string        `json:"date"`
	Values []model.Value `json:"values"`
}

// Table is the most recent rows of a series, rounded for display.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

func barField(b model.OHLCV, name string) (float64, bool) {
	switch name {
	case "Open":
		return b.Open, true
	case "High":
		return b.High, true
	case "Low":
		return b.Low, true
	case "Close":
		return b.Close, true
	case "Volume":
		return b.Volume, true
	}
	return 0, false
}

func round(v model.Value, places int32) model.Value {
	f, ok := v.Get()
	if !ok {
		return v
	}
	return model.Some(decimal.NewFromFloat(f).Round(places).InexactFloat64())
}

// LastRows returns the last n rows of s over columns, oldest first.
// Columns name bar fields (Open, High, Low, Close, Volume) or derived columns.
func LastRows(s *series.Series, n int, columns []string) (*Table, error) {
	if len(columns) == 0 {
		columns = DefaultTableColumns
	}
	derived := make(map[string]series.Column, len(columns))
	for _, name := range columns {
		if _, ok := barField(model.OHLCV{}, name); ok {
			continue
		}
		col, err := s.Column(name)
		if err != nil {
			return nil, fmt.Errorf("table column: %w", err)
		}
		derived[name] = col
	}

	t := &Table{Columns: append([]string(nil), columns...)}
	for i := s.Tail(n); i < s.Len(); i++ {
		b := s.Bar(i)
		row := TableRow{Date: b.Time.Format(dateLayout), Values: make([]model.Value, len(columns))}
		for j, name := range columns {
			if f, ok := barField(b, name); ok {
				row.Values[j] = round(model.Some(f), TablePlaces)
			} else {
				row.Values[j] = round(derived[name][i], TablePlaces)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
