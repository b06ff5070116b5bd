package evaluation

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

// Pair identifies one record of dataset A and one of dataset B by position
type Pair struct {
	IndexA int `yaml:"index_a" json:"index_a"`
	IndexB int `yaml:"index_b" json:"index_b"`
}

// ThresholdStats scores the candidates at or above one threshold against
// the known duplicate pairs
type ThresholdStats struct {
	Threshold      float64 `yaml:"threshold"`
	TruePositives  int     `yaml:"truepositives"`
	FalsePositives int     `yaml:"falsepositives"`
	FalseNegatives int     `yaml:"falsenegatives"`
	Precision      float64 `yaml:"precision"`
	Recall         float64 `yaml:"recall"`
	F1             float64 `yaml:"f1"`
}

// FieldStats compares a field's similarity on true duplicates against
// candidates that are not duplicates
type FieldStats struct {
	Field         string  `yaml:"field"`
	TrueMean      float64 `yaml:"truemean"`
	FalseMean     float64 `yaml:"falsemean"`
	TrueCompared  int     `yaml:"truecompared"`
	FalseCompared int     `yaml:"falsecompared"`

	trueScores  []float64
	falseScores []float64
}

// Results is the outcome of one matcher evaluation
type Results struct {
	DatasetA       string           `yaml:"dataseta"`
	DatasetB       string           `yaml:"datasetb"`
	Truth          string           `yaml:"truth"`
	Fields         []string         `yaml:"fields"`
	KnownPairs     int              `yaml:"knownpairs"`
	Candidates     int              `yaml:"candidates"`
	Thresholds     []ThresholdStats `yaml:"thresholds"`
	FieldStats     []FieldStats     `yaml:"fieldstats"`
	Missed         []Pair           `yaml:"missed"`
	Duration       time.Duration    `yaml:"duration"`
	EvaluationDate time.Time        `yaml:"evaluationdate"`
}

// Best returns the threshold with the highest F1, preferring the lower
// threshold on ties
func (r *Results) Best() (ThresholdStats, bool) {
	if len(r.Thresholds) == 0 {
		return ThresholdStats{}, false
	}
	best := r.Thresholds[0]
	for _, t := range r.Thresholds[1:] {
		if t.F1 > best.F1 {
			best = t
		}
	}
	return best, true
}

// ParsePairs reads known duplicate pairs from records with index_a and
// index_b columns
func ParsePairs(rows []records.Record) ([]Pair, error) {
	pairs := make([]Pair, 0, len(rows))
	for i, r := range rows {
		a, err := intField(r, "index_a")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		b, err := intField(r, "index_b")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		pairs = append(pairs, Pair{IndexA: a, IndexB: b})
	}
	return pairs, nil
}

func intField(r records.Record, key string) (int, error) {
	raw, ok := r.Text(key)
	if !ok || raw == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %d", key, n)
	}
	return n, nil
}

// Evaluate scores candidates against the known pairs at every threshold.
// Candidates must be unlimited and found at or below the lowest threshold
// for the counts to be meaningful.
func Evaluate(candidates []matching.Candidate, truth []Pair, thresholds []float64, fields []string) *Results {
	known := make(map[Pair]bool, len(truth))
	for _, p := range truth {
		known[p] = true
	}

	sorted := append([]float64(nil), thresholds...)
	sort.Float64s(sorted)

	res := &Results{
		Fields:         fields,
		KnownPairs:     len(known),
		Candidates:     len(candidates),
		EvaluationDate: time.Now(),
	}

	for _, t := range sorted {
		stats := ThresholdStats{Threshold: t}
		for _, c := range candidates {
			if c.Confidence < t {
				continue
			}
			if known[Pair{c.IndexA, c.IndexB}] {
				stats.TruePositives++
			} else {
				stats.FalsePositives++
			}
		}
		stats.FalseNegatives = len(known) - stats.TruePositives
		if n := stats.TruePositives + stats.FalsePositives; n > 0 {
			stats.Precision = float64(stats.TruePositives) / float64(n)
		}
		if len(known) > 0 {
			stats.Recall = float64(stats.TruePositives) / float64(len(known))
		}
		if stats.Precision+stats.Recall > 0 {
			stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
		}
		res.Thresholds = append(res.Thresholds, stats)
	}

	found := make(map[Pair]bool, len(candidates))
	byField := make(map[string]*FieldStats, len(fields))
	for _, f := range fields {
		byField[f] = &FieldStats{Field: f}
	}
	for _, c := range candidates {
		p := Pair{c.IndexA, c.IndexB}
		found[p] = true
		for field, score := range c.Details {
			fs, ok := byField[field]
			if !ok {
				continue
			}
			if known[p] {
				fs.trueScores = append(fs.trueScores, score)
			} else {
				fs.falseScores = append(fs.falseScores, score)
			}
		}
	}
	for _, f := range fields {
		fs := byField[f]
		fs.TrueMean = calculateAverage(fs.trueScores)
		fs.FalseMean = calculateAverage(fs.falseScores)
		fs.TrueCompared = len(fs.trueScores)
		fs.FalseCompared = len(fs.falseScores)
		res.FieldStats = append(res.FieldStats, *fs)
	}

	for p := range known {
		if !found[p] {
			res.Missed = append(res.Missed, p)
		}
	}
	sort.Slice(res.Missed, func(i, j int) bool {
		if res.Missed[i].IndexA != res.Missed[j].IndexA {
			return res.Missed[i].IndexA < res.Missed[j].IndexA
		}
		return res.Missed[i].IndexB < res.Missed[j].IndexB
	})

	return res
}

func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}
