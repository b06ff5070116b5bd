package matching

import (
	"encoding/json"
	"log/slog"

	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

// Provenance records which input file(s) a merged record came from
type Provenance string

const (
	SourceBoth  Provenance = "both"
	SourceFileA Provenance = "file_a"
	SourceFileB Provenance = "file_b"
)

// Bookkeeping keys added to flattened merged records
const (
	ConfidenceKey = "_merge_confidence"
	SourceKey     = "_merge_source"
)

// MergedRecord is one row of the merged dataset. Confidence is only
// meaningful for records with SourceBoth.
type MergedRecord struct {
	Record     records.Record
	Confidence float64
	Source     Provenance
}

// Flatten returns the record with the bookkeeping fields appended
func (m MergedRecord) Flatten() records.Record {
	out := m.Record.Clone()
	if m.Source == SourceBoth {
		out.Set(ConfidenceKey, m.Confidence)
	}
	out.Set(SourceKey, string(m.Source))
	return out
}

// MarshalJSON writes the flattened record
func (m MergedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Flatten())
}

// MergeStats summarises a merge
type MergeStats struct {
	TotalRecords  int `json:"total_records" yaml:"total_records"`
	MergedRecords int `json:"merged_records" yaml:"merged_records"`
	FileAOnly     int `json:"file_a_only" yaml:"file_a_only"`
	FileBOnly     int `json:"file_b_only" yaml:"file_b_only"`
}

// MergeResult is the merged dataset with its statistics
type MergeResult struct {
	Data  []MergedRecord `json:"data"`
	Stats MergeStats     `json:"stats"`
}

// Records returns the flattened merged records, ready to be written out
func (r MergeResult) Records() []records.Record {
	out := make([]records.Record, len(r.Data))
	for i, m := range r.Data {
		out[i] = m.Flatten()
	}
	return out
}

// ExecuteMerge builds the merged dataset: one record per confirmed match
// (B's fields overwrite A's), then every A record no confirmed match used,
// then every unused B record. Confirmed matches are not checked for
// overlapping indices; a record confirmed twice is merged twice.
func ExecuteMerge(confirmed []Candidate, datasetA, datasetB []records.Record) MergeResult {
	usedA := make(map[int]bool, len(confirmed))
	usedB := make(map[int]bool, len(confirmed))

	data := make([]MergedRecord, 0, len(confirmed)+len(datasetA)+len(datasetB))
	for _, c := range confirmed {
		data = append(data, MergedRecord{
			Record:     c.RecordA.Overlay(c.RecordB),
			Confidence: c.Confidence,
			Source:     SourceBoth,
		})
		usedA[c.IndexA] = true
		usedB[c.IndexB] = true
	}

	stats := MergeStats{MergedRecords: len(confirmed)}
	for i, r := range datasetA {
		if usedA[i] {
			continue
		}
		data = append(data, MergedRecord{Record: r.Clone(), Source: SourceFileA})
		stats.FileAOnly++
	}
	for j, r := range datasetB {
		if usedB[j] {
			continue
		}
		data = append(data, MergedRecord{Record: r.Clone(), Source: SourceFileB})
		stats.FileBOnly++
	}
	stats.TotalRecords = len(data)

	slog.Debug("Merged datasets",
		"total", stats.TotalRecords,
		"merged", stats.MergedRecords,
		"file_a_only", stats.FileAOnly,
		"file_b_only", stats.FileBOnly)

	return MergeResult{Data: data, Stats: stats}
}
