package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"StockPredictor/internal/exporter"
	"StockPredictor/internal/model"
	"StockPredictor/internal/notifier"
	"StockPredictor/internal/series"
)

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	symbol := fs.String("symbol", "", "ticker symbol, e.g. GOOGL")
	days := fs.Int("days", 0, "calendar days of history (default from config)")
	csvPath := fs.String("csv", "", "write the full computed series to this CSV file")
	rows := fs.Int("rows", exporter.DefaultRows, "recent rows shown in the report (0 hides the table)")
	mock := fs.Bool("mock", false, "use generated bars instead of a live source")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" {
		return errors.New("-symbol is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *mock)
	if err != nil {
		return err
	}
	defer a.Close()

	if *days <= 0 {
		*days = a.cfg.DataSource.HistoryDays
	}
	res, err := a.collector.Collect(ctx, *symbol, *days, model.TriggerManual)
	if err != nil {
		return err
	}

	var tbl *exporter.Table
	if *rows > 0 {
		if tbl, err = exporter.LastRows(res.Series, *rows, exporter.TableColumns(a.cfg.Indicators.SMAWindows)); err != nil {
			a.log.Warn("row table unavailable", zap.Error(err))
		}
	}
	fmt.Fprint(stdout, notifier.FormatAnalysisReport(res.Analysis, tbl, notifier.StylePlain))

	if *csvPath != "" {
		if err := writeCSVFile(*csvPath, res.Series); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nCSV written to %s\n", *csvPath)
	}
	return nil
}

func writeCSVFile(path string, s *series.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := exporter.WriteCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
