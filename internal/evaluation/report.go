package evaluation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrintSummary writes a human-readable summary of the evaluation
func (r *Results) PrintSummary(out io.Writer) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(out, "MATCHER EVALUATION SUMMARY")
	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintf(out, "Evaluation Date: %s\n", r.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Dataset A: %s\n", r.DatasetA)
	fmt.Fprintf(out, "Dataset B: %s\n", r.DatasetB)
	fmt.Fprintf(out, "Fields: %s\n", strings.Join(r.Fields, ", "))
	fmt.Fprintf(out, "Known Pairs: %d\n", r.KnownPairs)
	fmt.Fprintf(out, "Candidates: %d\n", r.Candidates)
	fmt.Fprintf(out, "Matching Time: %s\n", r.Duration)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "THRESHOLDS")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	fmt.Fprintf(out, "%-10s %6s %6s %6s %10s %8s %8s\n", "Threshold", "TP", "FP", "FN", "Precision", "Recall", "F1")
	for _, t := range r.Thresholds {
		fmt.Fprintf(out, "%-10.2f %6d %6d %6d %9.1f%% %7.1f%% %8.3f\n",
			t.Threshold, t.TruePositives, t.FalsePositives, t.FalseNegatives, t.Precision*100, t.Recall*100, t.F1)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "FIELD SIMILARITY")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, f := range r.FieldStats {
		fmt.Fprintf(out, "\n%s:\n", f.Field)
		fmt.Fprintf(out, "  Known duplicates: %.3f over %d pairs\n", f.TrueMean, f.TrueCompared)
		fmt.Fprintf(out, "  Other candidates: %.3f over %d pairs\n", f.FalseMean, f.FalseCompared)
	}
	fmt.Fprintln(out)

	if best, ok := r.Best(); ok {
		fmt.Fprintln(out, "BEST THRESHOLD")
		fmt.Fprintln(out, strings.Repeat("-", 70))
		fmt.Fprintf(out, "%.2f (F1 %.3f, precision %.1f%%, recall %.1f%%)\n", best.Threshold, best.F1, best.Precision*100, best.Recall*100)
	}
	if len(r.Missed) > 0 {
		fmt.Fprintf(out, "Known pairs never proposed: %d\n", len(r.Missed))
	}
	fmt.Fprintln(out, strings.Repeat("=", 70))
}

// SaveToYAML writes the results to dir/<timestamp>.yaml and returns the path
func (r *Results) SaveToYAML(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("match-%s.yaml", r.EvaluationDate.Format("2006-01-02_15-04-05")))

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
