// Package loader reads heterogeneous bank and system spreadsheets into
// uniform tables. Input files arrive with preamble rows above the real
// header, blank footer rows below the data, and occasionally the wrong
// sheet name, so loading is anchor-driven: the header row is found by
// scanning for a known anchor cell, promoted to column names, and
// everything above it discarded.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meridianfin/brs/internal/logger"
	"github.com/xuri/excelize/v2"
)

var acceptedExtensions = []string{".xlsx", ".xlsm", ".xls", ".csv"}

// Record is one data row keyed by trimmed column name.
type Record map[string]string

// Get returns the trimmed cell value for a column.
func (r Record) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Table is a loaded input file: the promoted header plus its data rows.
type Table struct {
	File    string
	Sheet   string
	Columns []string
	Rows    []Record
}

// Options control how a file is read.
type Options struct {
	// Anchor is the cell value marking the header row.
	Anchor string
	// Sheet is the preferred sheet. When absent from the workbook the
	// loader falls back to the last sheet and logs the substitution.
	// Empty selects the first sheet.
	Sheet string
	// Required columns; any missing one fails the load with a
	// *ValidationError.
	Required []string
}

// ReadFile loads a spreadsheet or CSV from disk.
func ReadFile(ctx context.Context, path string, opts Options) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", path, err)
		}
		defer f.Close()
		return readWorkbook(ctx, f, filepath.Base(path), opts)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", path, err)
		}
		defer f.Close()
		return readCSV(f, filepath.Base(path), opts)
	default:
		return nil, &FormatError{File: filepath.Base(path), Ext: ext}
	}
}

// Read loads a spreadsheet or CSV from a reader. name carries the original
// filename so the extension can be dispatched on.
func Read(ctx context.Context, r io.Reader, name string, opts Options) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("loader: open %s: %w", name, err)
		}
		defer f.Close()
		return readWorkbook(ctx, f, name, opts)
	case ".csv":
		return readCSV(r, name, opts)
	default:
		return nil, &FormatError{File: name, Ext: ext}
	}
}

func readWorkbook(ctx context.Context, f *excelize.File, name string, opts Options) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("loader: %s: workbook has no sheets", name)
	}

	sheet := sheets[0]
	if opts.Sheet != "" {
		sheet = opts.Sheet
		if idx, err := f.GetSheetIndex(opts.Sheet); err != nil || idx < 0 {
			// The banks occasionally rename the sheet; the data has always
			// been on the last sheet when that happens.
			sheet = sheets[len(sheets)-1]
			log := logger.FromContext(ctx)
			log.Error().
				Str("file", name).
				Str("wanted_sheet", opts.Sheet).
				Str("using_sheet", sheet).
				Msg("Sheet not found, falling back to last sheet")
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: read sheet %s: %w", name, sheet, err)
	}

	t, err := fromGrid(rows, name, opts)
	if err != nil {
		return nil, err
	}
	t.Sheet = sheet
	return t, nil
}

func readCSV(r io.Reader, name string, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loader: %s: read csv: %w", name, err)
	}
	return fromGrid(grid, name, opts)
}

// fromGrid finds the anchor row, promotes it to the header, keeps data rows
// below it, drops rows with an empty anchor cell, then validates required
// columns.
func fromGrid(grid [][]string, name string, opts Options) (*Table, error) {
	headerIdx := -1
	for i, row := range grid {
		for _, cell := range row {
			if strings.TrimSpace(cell) == opts.Anchor {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("loader: %s: header anchor %q not found", name, opts.Anchor)
	}

	header := make([]string, len(grid[headerIdx]))
	for i, cell := range grid[headerIdx] {
		header[i] = strings.TrimSpace(cell)
	}

	anchorCol := -1
	for i, col := range header {
		if col == opts.Anchor {
			anchorCol = i
		}
	}

	t := &Table{File: name, Columns: header}
	for _, row := range grid[headerIdx+1:] {
		if anchorCol >= len(row) || strings.TrimSpace(row[anchorCol]) == "" {
			continue
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}

	if missing := missingColumns(header, opts.Required); len(missing) > 0 {
		return nil, &ValidationError{File: name, Missing: missing, Found: header}
	}
	return t, nil
}

func missingColumns(header, required []string) []string {
	present := make(map[string]bool, len(header))
	for _, c := range header {
		present[c] = true
	}
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
