// Package exporter renders computed series as CSV files and fixed-width row tables.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"StockPredictor/internal/model"
	"StockPredictor/internal/series"
)

// CSVPlaces is the number of decimal places written to CSV cells.
const CSVPlaces = 4

const dateLayout = "2006-01-02"

// FileName is the download name for a symbol's full data export.
func FileName(symbol string) string {
	return strings.ToUpper(symbol) + "_stock_data.csv"
}

func formatNumber(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func formatValue(v model.Value, places int32) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return formatNumber(f, places)
}

// WriteCSV writes every bar of s with its derived columns in series order.
// Undefined cells are left empty.
func WriteCSV(w io.Writer, s *series.Series) error {
	names := s.Names()
	cols := make([]series.Column, len(names))
	for i, name := range names {
		col, err := s.Column(name)
		if err != nil {
			return err
		}
		cols[i] = col
	}

	cw := csv.NewWriter(w)
	header := append([]string{"Date", "Open", "High", "Low", "Close", "Volume"}, names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, b := range s.Bars() {
		record[0] = b.Time.Format(dateLayout)
		record[1] = formatNumber(b.Open, CSVPlaces)
		record[2] = formatNumber(b.High, CSVPlaces)
		record[3] = formatNumber(b.Low, CSVPlaces)
		record[4] = formatNumber(b.Close, CSVPlaces)
		record[5] = formatNumber(b.Volume, CSVPlaces)
		for j, col := range cols {
			record[6+j] = formatValue(col[i], CSVPlaces)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
