// Package series holds an immutable, date-ordered table of daily bars with
// named derived columns aligned one-to-one with the bars.
package series

import (
	"errors"
	"fmt"
	"time"

	"StockPredictor/internal/model"
)

var (
	ErrEmptySeries      = errors.New("series is empty")
	ErrNonMonotonicTime = errors.New("timestamps are not strictly increasing")
	ErrInvalidBar       = errors.New("invalid bar")
	ErrColumnNotFound   = errors.New("column not found")
	ErrColumnLength     = errors.New("column length does not match series length")
	ErrDuplicateColumn  = errors.New("column already exists")
)

// Column is one derived value per bar. Positions without enough history hold model.Undefined.
type Column []model.Value

// Series is never mutated after construction; With returns a new Series.
type Series struct {
	bars    []model.OHLCV
	names   []string
	columns map[string]Column
}

// Load validates bars and builds a Series. The input slice is copied.
func Load(bars []model.OHLCV) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w at position %d: %v", ErrInvalidBar, i, err)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("%w: position %d (%s) after %s", ErrNonMonotonicTime,
				i, b.Time.Format(time.DateOnly), bars[i-1].Time.Format(time.DateOnly))
		}
	}
	owned := make([]model.OHLCV, len(bars))
	copy(owned, bars)
	return &Series{bars: owned, columns: map[string]Column{}}, nil
}

// With returns a new Series carrying every existing column plus col under name.
func (s *Series) With(name string, col Column) (*Series, error) {
	if _, ok := s.columns[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	if len(col) != len(s.bars) {
		return nil, fmt.Errorf("%w: %s has %d entries, series has %d", ErrColumnLength, name, len(col), len(s.bars))
	}
	owned := make(Column, len(col))
	copy(owned, col)

	columns := make(map[string]Column, len(s.columns)+1)
	for k, v := range s.columns {
		columns[k] = v
	}
	columns[name] = owned

	names := make([]string, len(s.names), len(s.names)+1)
	copy(names, s.names)
	names = append(names, name)

	return &Series{bars: s.bars, names: names, columns: columns}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// Bar returns the bar at position i.
func (s *Series) Bar(i int) model.OHLCV { return s.bars[i] }

// LatestBar returns the bar at the last position.
func (s *Series) LatestBar() model.OHLCV { return s.bars[len(s.bars)-1] }

// Bars returns a copy of the bars.
func (s *Series) Bars() []model.OHLCV {
	out := make([]model.OHLCV, len(s.bars))
	copy(out, s.bars)
	return out
}

// Times returns the bar timestamps.
func (s *Series) Times() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Time
	}
	return out
}

// Closes returns the close-price column as plain floats.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Names returns derived column names in the order they were added.
func (s *Series) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Has reports whether a derived column exists.
func (s *Series) Has(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// Column returns a copy of the named derived column.
func (s *Series) Column(name string) (Column, error) {
	col, ok := s.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make(Column, len(col))
	copy(out, col)
	return out, nil
}

// At returns the value of a derived column at position i.
func (s *Series) At(name string, i int) (model.Value, error) {
	col, ok := s.columns[name]
	if !ok {
		return model.Undefined, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if i < 0 || i >= len(col) {
		return model.Undefined, fmt.Errorf("position %d out of range [0,%d)", i, len(col))
	}
	return col[i], nil
}

// Latest returns the value of a derived column at the last position.
func (s *Series) Latest(name string) (model.Value, error) {
	return s.At(name, len(s.bars)-1)
}

// Tail returns the start index of the last n positions; n <= 0 selects every position.
func (s *Series) Tail(n int) int {
	if n <= 0 || n >= len(s.bars) {
		return 0
	}
	return len(s.bars) - n
}
