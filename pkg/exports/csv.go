package exports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSV exports results as an RFC 4180 document with a header row.
type CSV struct{}

func (CSV) Name() string          { return "csv" }
func (CSV) ContentType() string   { return "text/csv; charset=utf-8" }
func (CSV) FileExtension() string { return "csv" }

func (CSV) Write(w io.Writer, labels []string, rows [][]any) error {
	writer := csv.NewWriter(w)
	if len(labels) > 0 {
		if err := writer.Write(labels); err != nil {
			return fmt.Errorf("exports: write csv header: %w", err)
		}
	}
	record := make([]string, 0, len(labels))
	for _, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, cellString(cell))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("exports: write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("exports: flush csv: %w", err)
	}
	return nil
}

func cellString(cell any) string {
	if cell == nil {
		return ""
	}
	return fmt.Sprint(cell)
}
