package forecast

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Row is a sample that can be exported as one CSV line.
type Row interface {
	DateLabel() string
	Temp() float64
}

// CSVHeader is the first line of every export.
var CSVHeader = []string{"Date", "Temperature"}

// WriteCSV writes the header followed by one "date,temperature" line per row.
func WriteCSV[R Row](w io.Writer, rows []R) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rows {
		rec := []string{r.DateLabel(), strconv.FormatFloat(r.Temp(), 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ToCSV returns the export as UTF-8 bytes.
func ToCSV[R Row](rows []R) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
