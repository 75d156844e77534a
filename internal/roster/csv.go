package roster

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses a comma-separated roster with a header row.
func ReadCSV(r io.Reader, opts Options) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.TrimLeadingSpace = true

	var rows [][]string
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("line %d: %w", line, err)}
		}
		rows = append(rows, rec)
	}
	return fromRows(rows, opts, nil)
}
