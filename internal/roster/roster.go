package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"billmailer/internal/flatkey"
)

const (
	// DefaultFlatColumn is the header of the flat identifier column.
	DefaultFlatColumn = "FlatNo"
	// DefaultEmailColumn is the header of the recipient address column.
	DefaultEmailColumn = "Email"
)

var (
	// ErrMissingColumn reports a roster without one of the required headers.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedFormat reports a roster file extension that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	// ErrEmpty reports a roster without a header row.
	ErrEmpty = errors.New("roster has no header row")
)

// Entry is one roster row: the flat it refers to and where its bill goes.
type Entry struct {
	Key   flatkey.Key
	Email string
	// Raw is the identifier as written in the source, kept for reporting.
	Raw string
	// Row is the 1-based source row, counting the header as row 1.
	Row int
}

// Options selects the columns (and, for workbooks, the sheet) to read.
type Options struct {
	FlatColumn  string
	EmailColumn string
	Sheet       string
}

func (o Options) withDefaults() Options {
	o.FlatColumn = strings.TrimSpace(o.FlatColumn)
	if o.FlatColumn == "" {
		o.FlatColumn = DefaultFlatColumn
	}
	o.EmailColumn = strings.TrimSpace(o.EmailColumn)
	if o.EmailColumn == "" {
		o.EmailColumn = DefaultEmailColumn
	}
	o.Sheet = strings.TrimSpace(o.Sheet)
	return o
}

// LoadError wraps any failure that prevents the roster from loading. Loading is
// all-or-nothing: when a LoadError is returned no entries are.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load roster: %v", e.Err)
	}
	return fmt.Sprintf("load roster %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the roster at path. The format is chosen by extension: .xlsx
// workbooks and .csv files are supported.
func Load(path string, opts Options) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".csv":
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	var entries []Entry
	if ext == ".csv" {
		entries, err = ReadCSV(file, opts)
	} else {
		entries, err = ReadXLSX(file, opts)
	}
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
			return nil, loadErr
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return entries, nil
}

// cellValue returns the typed value behind rows[row][col]. Formats whose cells
// are all text pass nil to fromRows.
type cellValue func(row, col int, text string) any

// fromRows converts a header row plus data rows into entries. Rows may be
// ragged; missing cells read as blank. The flat key comes from the typed cell
// value, so a cell that does not hold text yields the empty key.
func fromRows(rows [][]string, opts Options, value cellValue) ([]Entry, error) {
	opts = opts.withDefaults()
	if len(rows) == 0 {
		return nil, &LoadError{Err: ErrEmpty}
	}

	header := rows[0]
	flatIdx := columnIndex(header, opts.FlatColumn)
	emailIdx := columnIndex(header, opts.EmailColumn)
	var missing []string
	if flatIdx < 0 {
		missing = append(missing, opts.FlatColumn)
	}
	if emailIdx < 0 {
		missing = append(missing, opts.EmailColumn)
	}
	if len(missing) > 0 {
		return nil, &LoadError{Err: fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))}
	}

	if value == nil {
		value = func(_, _ int, text string) any { return text }
	}

	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		raw := cell(row, flatIdx)
		entries = append(entries, Entry{
			Key:   flatkey.FromValue(value(i+1, flatIdx, raw)),
			Email: strings.TrimSpace(cell(row, emailIdx)),
			Raw:   raw,
			Row:   i + 2,
		})
	}
	return entries, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
