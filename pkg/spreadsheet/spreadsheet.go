// Package spreadsheet reads tabular input files into header-keyed records.
//
// Cell values are nil for blank cells, string for text and, for workbooks,
// float64 for numeric cells and bool for boolean cells.
package spreadsheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("spreadsheet: unsupported file format")
	ErrMissingHeader     = errors.New("spreadsheet: missing header")
	ErrDuplicateHeader   = errors.New("spreadsheet: duplicate header column")
	ErrSheetNotFound     = errors.New("spreadsheet: sheet not found")
)

type Options struct {
	// Sheet selects a workbook sheet by name. Empty means the first sheet.
	Sheet string
}

type Table struct {
	Columns []string
	Rows    []Record
}

// Record is one data row. Line is the 1-based line (or sheet row) number in
// the source file.
type Record struct {
	Line   int
	Values map[string]any
}

// Read loads the file at path. The format is chosen by extension.
func Read(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readWorkbook(path, opts)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func normalizeHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	empty := true
	for i, h := range raw {
		h = strings.TrimSpace(h)
		header[i] = h
		if h == "" {
			continue
		}
		empty = false
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, h)
		}
		seen[key] = struct{}{}
	}
	if empty {
		return nil, ErrMissingHeader
	}
	return header, nil
}

// record keys cells by header. Columns without a header are dropped and
// missing trailing cells read as nil.
func record(line int, header []string, cell func(i int) any) Record {
	values := make(map[string]any, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		values[h] = cell(i)
	}
	return Record{Line: line, Values: values}
}
