package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"survey-stats/internal/state"
)

// ErrNoRows is returned when a source has no header row.
var ErrNoRows = errors.New("dataset has no header row")

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// LoadFile reads a survey from path, dispatching on the extension.
// sheet is only used for workbooks; empty selects the first sheet.
func LoadFile(path, sheet string) (*state.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadWorkbook(path, sheet)
	case ".csv", ".txt":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// LoadReader reads an uploaded survey. name is only used to pick the
// format and to label the frame.
func LoadReader(r io.Reader, name, sheet string) (*state.DataFrame, error) {
	var (
		df  *state.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		var f *excelize.File
		f, err = excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", name, err)
		}
		defer f.Close()
		df, err = readSheet(f, sheet)
	case ".csv", ".txt":
		var data []byte
		data, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		df, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	df.FileName = name
	return df, nil
}

// LoadWorkbook reads one sheet of an xlsx workbook with every cell as text.
func LoadWorkbook(path, sheet string) (*state.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	df, err := readSheet(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	df.FilePath = path
	df.FileName = filepath.Base(path)
	return df, nil
}

func readSheet(f *excelize.File, sheet string) (*state.DataFrame, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoRows
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	df, err := frameFromRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	df.Sheet = sheet
	return df, nil
}

// LoadCSV reads a comma- or semicolon-separated file.
func LoadCSV(path string) (*state.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	df, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	df.FilePath = path
	df.FileName = filepath.Base(path)
	return df, nil
}

func newCSVReader(data []byte, comma rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true    // Allow bare quotes in non-quoted fields
	reader.TrimLeadingSpace = true
	return reader
}

func parseCSV(data []byte) (*state.DataFrame, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := newCSVReader(data, ',')
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	// Semicolon exports (European locales) read as a single comma field.
	if err != nil || (len(headers) == 1 && strings.Contains(headers[0], ";")) {
		reader = newCSVReader(data, ';')
		headers, err = reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %w", err)
		}
	}

	records := [][]string{headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed rows
			continue
		}
		records = append(records, record)
	}
	return frameFromRecords(records)
}

// frameFromRecords treats the first record as the header row. Fully blank
// rows are dropped.
func frameFromRecords(records [][]string) (*state.DataFrame, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return nil, ErrNoRows
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return state.NewDataFrame(headers, rows), nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
