package exports

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSON exports results as an array of objects keyed by column label.
type JSON struct{}

func (JSON) Name() string          { return "json" }
func (JSON) ContentType() string   { return "application/json; charset=utf-8" }
func (JSON) FileExtension() string { return "json" }

func (JSON) Write(w io.Writer, labels []string, rows [][]any) error {
	width := len(labels)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	keys := recordKeys(labels, width)

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(row))
		for i, cell := range row {
			record[keys[i]] = cell
		}
		out = append(out, record)
	}
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("exports: encode json: %w", err)
	}
	return nil
}

// recordKeys derives one object key per column. Duplicate labels are legal in
// a submission, so colliding keys get a numeric suffix instead of overwriting
// each other.
func recordKeys(labels []string, width int) []string {
	keys := make([]string, width)
	seen := make(map[string]struct{}, width)
	for i := 0; i < width; i++ {
		base := fmt.Sprintf("column_%d", i)
		if i < len(labels) {
			base = labels[i]
		}
		key := base
		for n := 2; ; n++ {
			if _, dup := seen[key]; !dup {
				break
			}
			key = fmt.Sprintf("%s_%d", base, n)
		}
		seen[key] = struct{}{}
		keys[i] = key
	}
	return keys
}
