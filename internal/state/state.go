package state

import (
	"sync"
	"time"
)

// DataFrame represents a loaded survey sheet: one row per respondent,
// columns keyed by the raw question text.
type DataFrame struct {
	Headers  []string
	Rows     [][]string
	FilePath string
	FileName string
	Sheet    string
}

// NewDataFrame builds a frame and pads short rows so every row has one
// cell per header.
func NewDataFrame(headers []string, rows [][]string) *DataFrame {
	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(headers) {
			full := make([]string, len(headers))
			copy(full, row)
			row = full
		} else if len(row) > len(headers) {
			row = row[:len(headers)]
		}
		padded = append(padded, row)
	}
	return &DataFrame{Headers: headers, Rows: padded}
}

// NumRows returns the number of respondents.
func (df *DataFrame) NumRows() int {
	return len(df.Rows)
}

// Cell returns the raw text at (row, col), or "" when out of range.
func (df *DataFrame) Cell(row, col int) string {
	if row < 0 || row >= len(df.Rows) || col < 0 || col >= len(df.Rows[row]) {
		return ""
	}
	return df.Rows[row][col]
}

// Column returns a copy of one column's raw cells.
func (df *DataFrame) Column(col int) []string {
	values := make([]string, len(df.Rows))
	for i := range df.Rows {
		values[i] = df.Cell(i, col)
	}
	return values
}

// Filter returns a new frame containing the rows for which keep is true.
// The receiver is not modified.
func (df *DataFrame) Filter(keep func(row []string) bool) *DataFrame {
	rows := [][]string{}
	for _, row := range df.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &DataFrame{
		Headers:  df.Headers,
		Rows:     rows,
		FilePath: df.FilePath,
		FileName: df.FileName,
		Sheet:    df.Sheet,
	}
}

// AppState holds the dataset served by the HTTP API.
type AppState struct {
	mu sync.RWMutex

	dataset  *DataFrame
	loadedAt time.Time
}

// Global state instance
var State = &AppState{}

// SetDataFrame replaces the served dataset.
func (s *AppState) SetDataFrame(df *DataFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = df
	s.loadedAt = time.Now()
}

// GetDataFrame returns the served dataset, or nil when nothing is loaded.
func (s *AppState) GetDataFrame() *DataFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dataset
}

// LoadedAt reports when the current dataset was set.
func (s *AppState) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadedAt
}

// Clear drops the served dataset.
func (s *AppState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = nil
	s.loadedAt = time.Time{}
}
