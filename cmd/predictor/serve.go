package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"StockPredictor/internal/api"
	"StockPredictor/internal/notifier"
	"StockPredictor/internal/recorder"
	"StockPredictor/internal/scheduler"
	"StockPredictor/internal/tracker"
)

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mock := fs.Bool("mock", false, "use generated bars instead of a live source")
	runOnStart := fs.Bool("run-on-start", os.Getenv("RUN_ON_START") == "true", "analyse the watchlist immediately")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *mock)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log
	cfg := a.cfg
	log.Info("stock predictor starting", zap.Strings("watchlist", cfg.Watchlist))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	var tn *notifier.TelegramNotifier
	var n notifier.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	} else {
		log.Info("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, a.collector, n, rec, cfg.Watchlist, cfg.DataSource.HistoryDays, log)
	if tr, err := tracker.NewTracker(cfg.State.File, log); err != nil {
		log.Warn("load signal state failed, change tracking disabled", zap.Error(err))
	} else {
		sched.Tracker = tr
	}
	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// Background work must finish before the scheduler stops and the recorder closes.
	var polling sync.WaitGroup
	defer polling.Wait()
	if tn != nil {
		polling.Add(1)
		go func() {
			defer polling.Done()
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		log.Info("telegram polling started")
	}

	if *runOnStart {
		log.Info("run on start enabled, executing daily task now")
		sched.RunAsync()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(a.collector, rec, a.metrics, cfg.DataSource.HistoryDays, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("stock predictor stopped")
	return nil
}
