package recorder

import "StockPredictor/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *model.Analysis) error           { return nil }
func (n *NoopRecorder) RecordRun(_ *RunEvent) error                      { return nil }
func (n *NoopRecorder) Recent(_ string, _ int) ([]AnalysisRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
