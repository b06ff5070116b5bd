package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/volmerge/internal/records"
	"github.com/parquet-go/parquet-go"
)

func TestNewLoader(t *testing.T) {
	path := "./volunteers.csv"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffname,email,phone\n" +
		"Jon Smith,jon@x.com,555-0100\n" +
		",,\n" +
		"Ann Lee,,\n" +
		"Short Row\n"

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if !reflect.DeepEqual(ds.Headers, []string{"name", "email", "phone"}) {
		t.Errorf("Headers = %v", ds.Headers)
	}
	if len(ds.Records) != 3 {
		t.Fatalf("expected 3 records (blank row skipped), got %d", len(ds.Records))
	}

	if v, ok := ds.Records[1].Text("email"); !ok || v != "" {
		t.Errorf("empty cell should be present and empty, got %q, %v", v, ok)
	}
	if ds.Records[2].Has("email") {
		t.Error("cell missing from a short row should be absent")
	}
}

func TestReadCSV_Empty(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(ds.Records) != 0 || len(ds.Headers) != 0 {
		t.Errorf("expected empty dataset, got %+v", ds)
	}
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"a.csv":   "name,hours\nJon,3\n",
		"a.json":  `[{"name":"Jon","hours":3},{"hours":1,"name":"Ann","extra":null}]`,
		"a.jsonl": "{\"name\":\"Jon\",\"hours\":3}\n\n{\"name\":\"Ann\"}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		file    string
		records int
		headers []string
	}{
		{"a.csv", 1, []string{"name", "hours"}},
		{"a.json", 2, []string{"name", "hours", "extra"}},
		{"a.jsonl", 2, []string{"name", "hours"}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			ds, err := Load(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(ds.Records) != tt.records {
				t.Errorf("records = %d, want %d", len(ds.Records), tt.records)
			}
			if !reflect.DeepEqual(ds.Headers, tt.headers) {
				t.Errorf("headers = %v, want %v", ds.Headers, tt.headers)
			}
			if name, _ := ds.Records[0].Text("name"); name != "Jon" {
				t.Errorf("first name = %q", name)
			}
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("volunteers.xlsx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

type volunteerRow struct {
	Name  string  `parquet:"name"`
	Email string  `parquet:"email"`
	Hours float64 `parquet:"hours"`
}

func TestLoad_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volunteers.parquet")
	rows := []volunteerRow{
		{Name: "Jon Smith", Email: "jon@x.com", Hours: 2.5},
		{Name: "Ann Lee", Email: "ann@x.com", Hours: 4},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(ds.Records))
	}

	for _, h := range []string{"name", "email", "hours"} {
		found := false
		for _, got := range ds.Headers {
			if got == h {
				found = true
			}
		}
		if !found {
			t.Errorf("header %q missing from %v", h, ds.Headers)
		}
	}

	if v, _ := ds.Records[1].Text("name"); v != "Ann Lee" {
		t.Errorf("name = %q", v)
	}
	if v, _ := ds.Records[0].Get("hours"); v != 2.5 {
		t.Errorf("hours = %v", v)
	}
}

func TestLoad_ParquetNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volunteers.parquet")
	rows := []volunteerRow{
		{Name: "Jon Smith", Hours: math.NaN()},
		{Name: "Ann Lee", Hours: math.Inf(1)},
		{Name: "Wen Li", Hours: math.Inf(-1)},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, r := range ds.Records {
		v, ok := r.Get("hours")
		if !ok || v != nil {
			t.Errorf("record %d hours = %v, %v; want present nil", i, v, ok)
		}
	}
	if _, err := json.Marshal(ds.Records); err != nil {
		t.Errorf("records do not encode as JSON: %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	rows := []records.Record{
		records.New(records.Field{Key: "name", Value: "Jon"}, records.Field{Key: "hours", Value: 2}),
		records.New(records.Field{Key: "name", Value: "Ann"}, records.Field{Key: "phone", Value: nil}),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	expected := "name,hours,phone\nJon,2,\nAnn,,\n"
	if buf.String() != expected {
		t.Errorf("WriteCSV =\n%s\nwant\n%s", buf.String(), expected)
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := []records.Record{
		records.New(records.Field{Key: "name", Value: "Jon"}, records.Field{Key: "_merge_source", Value: "both"}),
	}

	for _, name := range []string{"out.json", "out.jsonl", "nested/out.csv"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, rows); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		ds, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if len(ds.Records) != 1 {
			t.Fatalf("%s: records = %d", name, len(ds.Records))
		}
		if v, _ := ds.Records[0].Text("_merge_source"); v != "both" {
			t.Errorf("%s: _merge_source = %q", name, v)
		}
	}

	if err := WriteFile(filepath.Join(dir, "out.txt"), rows); err == nil {
		t.Error("expected error for unsupported output format")
	}
}
