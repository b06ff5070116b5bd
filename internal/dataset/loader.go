package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/volmerge/internal/records"
	"github.com/parquet-go/parquet-go"
)

// Dataset is a parsed upload: its column headers in file order and its rows
type Dataset struct {
	Path    string
	Headers []string
	Records []records.Record
}

// Loader reads datasets from CSV, JSON, JSONL or Parquet files
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load detects the file format by extension and parses the whole file
func Load(path string) (*Dataset, error) {
	return NewLoader(path).Load()
}

// Load loads all records from the dataset file
func (l *Loader) Load() (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	var (
		ds  *Dataset
		err error
	)
	switch ext {
	case ".csv":
		ds, err = l.loadCSV()
	case ".json":
		ds, err = l.loadJSON()
	case ".jsonl", ".ndjson":
		ds, err = l.loadJSONL()
	case ".parquet":
		ds, err = l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .json, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	ds.Path = l.datasetPath
	slog.Debug("Loaded dataset", "path", l.datasetPath, "records", len(ds.Records), "headers", len(ds.Headers))
	return ds, nil
}

func (l *Loader) loadCSV() (*Dataset, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses CSV with a header row. Empty cells are kept as empty strings;
// cells missing from short rows are absent from the record.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	ds := &Dataset{Headers: headers}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV at line %d: %w", line, err)
		}
		if isBlankRow(row) {
			continue
		}

		var rec records.Record
		for i, h := range headers {
			if i >= len(row) {
				break
			}
			rec.Set(h, row[i])
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (l *Loader) loadJSON() (*Dataset, error) {
	data, err := os.ReadFile(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	var rows []records.Record
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}

	return &Dataset{Headers: records.UnionKeys(rows), Records: rows}, nil
}

// loadJSONL loads records from a JSONL file
func (l *Loader) loadJSONL() (*Dataset, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var rows []records.Record
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec records.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		rows = append(rows, rec)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	return &Dataset{Headers: records.UnionKeys(rows), Records: rows}, nil
}

// loadParquet loads records from a flat Parquet file. Nested columns are
// addressed by their dotted path.
func (l *Loader) loadParquet() (*Dataset, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	var headers []string
	for _, path := range pf.Schema().Columns() {
		headers = append(headers, strings.Join(path, "."))
	}

	reader := parquet.NewReader(file)
	defer reader.Close()

	ds := &Dataset{Headers: headers}
	rows := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			ds.Records = append(ds.Records, parquetRecord(headers, row))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return ds, nil
}

func parquetRecord(headers []string, row parquet.Row) records.Record {
	var rec records.Record
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(headers) {
			continue
		}
		key := headers[col]
		if rec.Has(key) {
			// repeated values: keep the first
			continue
		}
		rec.Set(key, parquetValue(v))
	}
	return rec
}

// finite maps NaN and infinities to nil since JSON cannot encode them
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return finite(float64(v.Float()))
	case parquet.Double:
		return finite(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
