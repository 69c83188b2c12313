// Package api serves analyses over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"StockPredictor/internal/collector"
	"StockPredictor/internal/exporter"
	"StockPredictor/internal/metrics"
	"StockPredictor/internal/model"
	"StockPredictor/internal/recorder"
	"StockPredictor/internal/series"
	"StockPredictor/internal/strategy"
)

const maxDays = 3650

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.^=\-]{1,16}$`)

// Server exposes the collector and the recorded history.
type Server struct {
	Collector   *collector.Collector
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics
	DefaultDays int

	log *zap.Logger
}

// NewServer creates a new Server.
func NewServer(col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics, defaultDays int, log *zap.Logger) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{
		Collector:   col,
		Recorder:    rec,
		Metrics:     m,
		DefaultDays: defaultDays,
		log:         log.With(zap.String("component", "api")),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/analysis/{symbol}", func(r chi.Router) {
			r.Get("/", s.HandleAnalysis)
			r.Get("/rows", s.HandleRows)
			r.Get("/csv", s.HandleCSV)
		})
		r.Get("/history/{symbol}", s.HandleHistory)
		r.Get("/profile/{symbol}", s.HandleProfile)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collector.ErrInsufficientHistory),
		errors.Is(err, strategy.ErrIndicatorsUndefined):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrNoProfiles):
		return http.StatusNotFound
	case errors.Is(err, collector.ErrFetch),
		errors.Is(err, collector.ErrProfileFetch),
		errors.Is(err, series.ErrEmptySeries),
		errors.Is(err, series.ErrNonMonotonicTime),
		errors.Is(err, series.ErrInvalidBar):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// intParam reads a positive integer query parameter bounded by upper.
func intParam(r *http.Request, name string, def, upper int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > upper {
		return 0, errors.New(name + " must be an integer between 1 and " + strconv.Itoa(upper))
	}
	return n, nil
}

func symbolParam(r *http.Request) (string, error) {
	symbol := chi.URLParam(r, "symbol")
	if !symbolPattern.MatchString(symbol) {
		return "", errors.New("invalid symbol")
	}
	return strings.ToUpper(symbol), nil
}

// analyze parses symbol and days, then runs the pipeline. On failure the
// error response has already been written.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (*collector.Result, bool) {
	symbol, err := symbolParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	days, err := intParam(r, "days", s.DefaultDays, maxDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	res, err := s.Collector.Collect(r.Context(), symbol, days, model.TriggerAPI)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Warn("analysis failed", zap.String("symbol", symbol), zap.Error(err))
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	return res, true
}

// HandleAnalysis returns the latest-position analysis of a symbol.
func (s *Server) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Analysis)
}

type rowsResponse struct {
	Symbol string `json:"symbol"`
	*exporter.Table
}

// HandleRows returns the most recent rows rounded for display.
func (s *Server) HandleRows(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", exporter.DefaultRows, maxDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := s.analyze(w, r)
	if !ok {
		return
	}
	tbl, err := exporter.LastRows(res.Series, limit, exporter.TableColumns(s.Collector.Params.SMAWindows))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Symbol: res.Analysis.Symbol, Table: tbl})
}

// HandleCSV downloads the full computed series.
func (s *Server) HandleCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.analyze(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := exporter.WriteCSV(&buf, res.Series); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exporter.FileName(res.Analysis.Symbol)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleProfile returns the company profile of a symbol.
func (s *Server) HandleProfile(w http.ResponseWriter, r *http.Request) {
	symbol, err := symbolParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.Collector.Profile(r.Context(), symbol)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadGateway {
			s.log.Warn("profile failed", zap.String("symbol", symbol), zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleHistory returns recorded analyses of a symbol, newest first.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, err := symbolParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 30, 1000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.Recorder.Recent(symbol, limit)
	if err != nil {
		s.log.Error("history query failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	out := make([]model.Analysis, len(recs))
	for i, rec := range recs {
		out[i] = rec.Analysis
	}
	writeJSON(w, http.StatusOK, out)
}
