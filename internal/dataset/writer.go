package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

// WriteFile writes rows to path as CSV or JSON depending on the extension
func WriteFile(path string, rows []records.Record) error {
	var write func(io.Writer, []records.Record) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		write = WriteJSON
	case ".jsonl", ".ndjson":
		write = WriteJSONL
	case ".csv":
		write = WriteCSV
	default:
		return fmt.Errorf("unsupported output format: %s (supported: .csv, .json, .jsonl)", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := write(f, rows); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes rows as CSV. The header is the union of record keys in
// first-seen order; absent and nil values are written as empty cells.
func WriteCSV(out io.Writer, rows []records.Record) error {
	writer := csv.NewWriter(out)

	header := records.UnionKeys(rows)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		row := make([]string, len(header))
		for i, k := range header {
			if v, ok := r.Get(k); ok {
				row[i] = records.FormatValue(v)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes rows as an indented JSON array
func WriteJSON(out io.Writer, rows []records.Record) error {
	if rows == nil {
		rows = []records.Record{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteJSONL writes one JSON object per line
func WriteJSONL(out io.Writer, rows []records.Record) error {
	encoder := json.NewEncoder(out)
	for i, r := range rows {
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	return nil
}
