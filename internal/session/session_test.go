package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	writeFile(t, pathA, "name,email\nJon Smith,jon@x.com\nAnn Lee,ann@x.com\n")
	writeFile(t, pathB, "name,email,phone\nJon Smith,jon@x.com,555-0100\nWen Li,wen@x.com,\n")

	a, err := dataset.Load(pathA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dataset.Load(pathB)
	if err != nil {
		t.Fatal(err)
	}

	opts := matching.DefaultOptions()
	candidates, err := matching.FindBestMatches(context.Background(), a.Records, b.Records, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}

	sessionPath := filepath.Join(dir, "review.yaml")
	f := New(a, b, opts, candidates, true)
	if err := f.Save(sessionPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(sessionPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Review.Exclusive {
		t.Error("exclusive flag lost")
	}
	if len(loaded.Review.Pending) != len(candidates) {
		t.Fatalf("pending = %d, want %d", len(loaded.Review.Pending), len(candidates))
	}
	first := loaded.Review.Pending[0]
	if first.ID != candidates[0].ID || first.Confidence != candidates[0].Confidence {
		t.Errorf("candidate changed on reload: %+v", first)
	}
	if name, _ := first.RecordB.Text("phone"); name != "555-0100" {
		t.Errorf("record B phone = %q", name)
	}

	if _, err := loaded.Review.Confirm(first.ID); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Save(sessionPath); err != nil {
		t.Fatal(err)
	}

	again, err := Load(sessionPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Review.Confirmed) != 1 {
		t.Fatalf("confirmed = %d", len(again.Review.Confirmed))
	}

	da, db, err := again.LoadDatasets()
	if err != nil {
		t.Fatalf("LoadDatasets: %v", err)
	}
	result := matching.ExecuteMerge(again.Review.Confirmed, da.Records, db.Records)
	if result.Stats.TotalRecords != 3 || result.Stats.MergedRecords != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestLoadDatasets_DetectsChangedInput(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	writeFile(t, pathA, "name\nJon\n")
	writeFile(t, pathB, "name\nJon\n")

	f := &File{Config: Config{DatasetA: pathA, DatasetB: pathB, RecordsA: 1, RecordsB: 1}}
	if _, _, err := f.LoadDatasets(); err != nil {
		t.Fatalf("LoadDatasets: %v", err)
	}

	writeFile(t, pathB, "name\nJon\nAnn\n")
	if _, _, err := f.LoadDatasets(); err == nil {
		t.Error("expected error when dataset B gained a record")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
