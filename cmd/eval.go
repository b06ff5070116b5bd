package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/evaluation"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var truthPath string
	var outputDir string
	var thresholds []float64

	cmd := &cobra.Command{
		Use:   "eval <fileA> <fileB>",
		Short: "Measure matcher accuracy against known duplicate pairs",
		Long: `Runs the matcher over two files and compares its candidates with a file of
known duplicate pairs (columns index_a and index_b, zero-based row positions).

Precision, recall and F1 are reported for each threshold, together with the mean
per-field similarity of known duplicates versus other candidates, so thresholds
and compared fields can be tuned before a real review.`,
		Example: `  # Evaluate the default fields at a few thresholds
  volmerge eval spring.csv fall.csv --truth pairs.csv

  # Compare names only and keep the results
  volmerge eval spring.csv fall.csv --truth pairs.csv --fields name --thresholds 0.6,0.7,0.8 --output evals`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(thresholds) == 0 {
				return fmt.Errorf("--thresholds must not be empty")
			}
			opts, err := matchOptions(cmd)
			if err != nil {
				return err
			}
			opts.MaxMatches = -1
			opts.Threshold = thresholds[0]
			for _, t := range thresholds {
				if t < opts.Threshold {
					opts.Threshold = t
				}
			}

			a, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			b, err := dataset.Load(args[1])
			if err != nil {
				return err
			}
			truthSet, err := dataset.Load(truthPath)
			if err != nil {
				return err
			}
			truth, err := evaluation.ParsePairs(truthSet.Records)
			if err != nil {
				return fmt.Errorf("failed to read known pairs: %w", err)
			}

			slog.Info("Starting matcher evaluation", "a", a.Path, "b", b.Path, "known_pairs", len(truth), "fields", opts.Fields)
			start := time.Now()
			candidates, err := matching.FindBestMatches(cmd.Context(), a.Records, b.Records, opts)
			if err != nil {
				return fmt.Errorf("failed to find matches: %w", err)
			}

			res := evaluation.Evaluate(candidates, truth, thresholds, opts.Fields)
			res.DatasetA = a.Path
			res.DatasetB = b.Path
			res.Truth = truthPath
			res.Duration = time.Since(start)

			res.PrintSummary(cmd.OutOrStdout())

			if outputDir != "" {
				path, err := res.SaveToYAML(outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nEvaluation results saved to: %s\n", path)
			}
			return nil
		},
	}

	addMatchFlags(cmd)
	cmd.Flags().StringVar(&truthPath, "truth", "", "File of known duplicate pairs (required)")
	cmd.Flags().Float64SliceVar(&thresholds, "thresholds", []float64{0.5, 0.6, 0.7, 0.8, 0.9}, "Thresholds to score")
	cmd.Flags().StringVar(&outputDir, "output", "", "Directory to save YAML results in")
	_ = cmd.MarkFlagRequired("truth")

	return cmd
}
