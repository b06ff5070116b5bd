package matching

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultThreshold  = 0.5
	DefaultMaxMatches = 100
)

// DefaultFields are the record fields compared when Options.Fields is empty
var DefaultFields = []string{"name", "email", "phone"}

// Options controls FindBestMatches.
//
// Threshold is used as given; start from DefaultOptions for the usual 0.5.
// MaxMatches of 0 means DefaultMaxMatches and a negative value means no limit.
// Workers of 0 means GOMAXPROCS.
type Options struct {
	Threshold   float64
	MaxMatches  int
	Fields      []string
	Comparators map[string]Comparator
	Workers     int
}

// DefaultOptions returns the options used by the merge wizard
func DefaultOptions() Options {
	return Options{
		Threshold:  DefaultThreshold,
		MaxMatches: DefaultMaxMatches,
		Fields:     DefaultFields,
	}
}

// Candidate is a proposed pairing of one record from dataset A with one
// record from dataset B. Candidates are never modified once created, only
// moved between the pending and confirmed lists of a Review.
type Candidate struct {
	ID         string             `json:"id" yaml:"id"`
	IndexA     int                `json:"index_a" yaml:"index_a"`
	IndexB     int                `json:"index_b" yaml:"index_b"`
	RecordA    records.Record     `json:"record_a" yaml:"record_a"`
	RecordB    records.Record     `json:"record_b" yaml:"record_b"`
	Confidence float64            `json:"confidence" yaml:"confidence"`
	Details    map[string]float64 `json:"details" yaml:"details"`
}

// FindBestMatches scores every pair of records across the two datasets and
// returns the pairs whose confidence reaches the threshold, best first.
// Confidence is the mean similarity over the fields both records carry;
// pairs sharing no comparable field are dropped. Ties keep (indexA, indexB)
// order, so the result is identical for identical inputs regardless of how
// many workers score the pairs.
func FindBestMatches(ctx context.Context, datasetA, datasetB []records.Record, opts Options) ([]Candidate, error) {
	if len(datasetA) == 0 || len(datasetB) == 0 {
		return []Candidate{}, nil
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	comparators := make([]Comparator, len(fields))
	for i, f := range fields {
		comparators[i] = comparatorFor(f, opts.Comparators)
	}

	normA := normalizeDataset(datasetA, fields, comparators)
	normB := normalizeDataset(datasetB, fields, comparators)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slog.Debug("Scoring record pairs", "dataset_a", len(datasetA), "dataset_b", len(datasetB), "fields", fields, "workers", workers)

	perRow := make([][]Candidate, len(datasetA))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range datasetA {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var row []Candidate
			for j := range datasetB {
				confidence, details, ok := scorePair(normA[i], normB[j], fields, comparators)
				if !ok || confidence < opts.Threshold {
					continue
				}
				row = append(row, Candidate{
					IndexA:     i,
					IndexB:     j,
					RecordA:    datasetA[i],
					RecordB:    datasetB[j],
					Confidence: confidence,
					Details:    details,
				})
			}
			perRow[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := []Candidate{}
	for _, row := range perRow {
		candidates = append(candidates, row...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	limit := opts.MaxMatches
	if limit == 0 {
		limit = DefaultMaxMatches
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for i := range candidates {
		candidates[i].ID = uuid.NewString()
	}

	slog.Debug("Found candidate matches", "count", len(candidates), "threshold", opts.Threshold)
	return candidates, nil
}

func comparatorFor(field string, overrides map[string]Comparator) Comparator {
	if c, ok := overrides[field]; ok && c != nil {
		return c
	}
	if c, ok := DefaultComparators[field]; ok {
		return c
	}
	return TextComparator{}
}

// normalizeDataset precomputes the comparable form of every match field;
// an empty string marks a field that is absent, null or blank.
func normalizeDataset(rs []records.Record, fields []string, comparators []Comparator) [][]string {
	out := make([][]string, len(rs))
	for i, r := range rs {
		row := make([]string, len(fields))
		for k, f := range fields {
			if text, ok := r.Text(f); ok {
				row[k] = comparators[k].Normalize(text)
			}
		}
		out[i] = row
	}
	return out
}

func scorePair(a, b []string, fields []string, comparators []Comparator) (float64, map[string]float64, bool) {
	var details map[string]float64
	total := 0.0
	for k, f := range fields {
		if a[k] == "" || b[k] == "" {
			continue
		}
		if details == nil {
			details = make(map[string]float64, len(fields))
		}
		score := comparators[k].Similarity(a[k], b[k])
		details[f] = score
		total += score
	}
	if len(details) == 0 {
		return 0, nil, false
	}
	return total / float64(len(details)), details, true
}

// Similarity scores a single pair of records with the given options,
// returning the confidence and per-field breakdown FindBestMatches would use.
func Similarity(a, b records.Record, opts Options) (float64, map[string]float64) {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	comparators := make([]Comparator, len(fields))
	for i, f := range fields {
		comparators[i] = comparatorFor(f, opts.Comparators)
	}
	normA := normalizeDataset([]records.Record{a}, fields, comparators)
	normB := normalizeDataset([]records.Record{b}, fields, comparators)
	confidence, details, _ := scorePair(normA[0], normB[0], fields, comparators)
	return confidence, details
}
