package spreadsheet

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

func readWorkbook(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}
	header, err := normalizeHeader(rows[0])
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: header}
	for i, row := range rows[1:] {
		line := i + 2
		var cellErr error
		rec := record(line, header, func(col int) any {
			if col >= len(row) {
				return nil
			}
			v, err := typedCell(f, sheet, col+1, line, row[col])
			if err != nil && cellErr == nil {
				cellErr = err
			}
			return v
		})
		if cellErr != nil {
			return nil, cellErr
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func pickSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if name == "" {
		if len(sheets) == 0 {
			return "", ErrSheetNotFound
		}
		return sheets[0], nil
	}
	if !slices.Contains(sheets, name) {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return name, nil
}

// typedCell converts a raw cell value using the cell's stored type. Cells
// without an explicit type are numbers in the OOXML model.
func typedCell(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", ref, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeError:
		return nil, nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}
