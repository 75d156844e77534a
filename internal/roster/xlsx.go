package roster

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses an Excel workbook. The sheet named in opts is used when set,
// otherwise the first sheet in the workbook.
func ReadXLSX(r io.Reader, opts Options) ([]Entry, error) {
	opts = opts.withDefaults()

	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer book.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, &LoadError{Err: ErrEmpty}
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	return fromRows(rows, opts, func(row, col int, text string) any {
		return typedCell(book, sheet, row, col, text)
	})
}

// typedCell returns text for string cells and nil for everything else.
// Numbers and dates have no type attribute in the sheet XML, so they report
// CellTypeUnset just like empty cells.
func typedCell(book *excelize.File, sheet string, row, col int, text string) any {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil
	}
	typ, err := book.GetCellType(sheet, ref)
	if err != nil {
		return nil
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return text
	default:
		return nil
	}
}
