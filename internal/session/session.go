package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"gopkg.in/yaml.v3"
)

// Config records how the candidates in a session file were produced
type Config struct {
	DatasetA   string   `yaml:"dataseta"`
	DatasetB   string   `yaml:"datasetb"`
	RecordsA   int      `yaml:"recordsa"`
	RecordsB   int      `yaml:"recordsb"`
	Fields     []string `yaml:"fields"`
	Threshold  float64  `yaml:"threshold"`
	MaxMatches int      `yaml:"maxmatches"`
	Timestamp  string   `yaml:"timestamp"`
}

// File is the on-disk review session driven by the review and merge commands
type File struct {
	Config Config          `yaml:"config"`
	Review matching.Review `yaml:"review"`
}

// New creates a session file for freshly found candidates
func New(a, b *dataset.Dataset, opts matching.Options, candidates []matching.Candidate, exclusive bool) *File {
	return &File{
		Config: Config{
			DatasetA:   a.Path,
			DatasetB:   b.Path,
			RecordsA:   len(a.Records),
			RecordsB:   len(b.Records),
			Fields:     opts.Fields,
			Threshold:  opts.Threshold,
			MaxMatches: opts.MaxMatches,
			Timestamp:  time.Now().Format("2006-01-02_15-04-05"),
		},
		Review: *matching.NewReview(candidates, exclusive),
	}
}

// Load reads a session file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	if f.Review.Confirmed == nil {
		f.Review.Confirmed = []matching.Candidate{}
	}
	return &f, nil
}

// Save writes the session file, replacing it atomically
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// LoadDatasets reloads both input files and checks they still have the
// record counts the candidates were computed against.
func (f *File) LoadDatasets() (*dataset.Dataset, *dataset.Dataset, error) {
	a, err := dataset.Load(f.Config.DatasetA)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset A: %w", err)
	}
	b, err := dataset.Load(f.Config.DatasetB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset B: %w", err)
	}
	if len(a.Records) != f.Config.RecordsA {
		return nil, nil, fmt.Errorf("dataset A %s changed: session has %d records, file has %d", a.Path, f.Config.RecordsA, len(a.Records))
	}
	if len(b.Records) != f.Config.RecordsB {
		return nil, nil, fmt.Errorf("dataset B %s changed: session has %d records, file has %d", b.Path, f.Config.RecordsB, len(b.Records))
	}
	return a, b, nil
}
