package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/session"
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	var sessionPath string
	var exclusive bool
	var autoConfirm float64

	cmd := &cobra.Command{
		Use:   "match <fileA> <fileB>",
		Short: "Find candidate duplicate records across two files",
		Long: `Scores every record of fileA against every record of fileB and writes the
candidate pairs at or above the threshold, best first, to a review session file.

Confidence is the mean similarity over the compared fields both records carry
(name, email and phone by default). Review the candidates with "volmerge review"
and produce the merged file with "volmerge merge".`,
		Example: `  # Start a review session
  volmerge match spring.csv fall.csv --session review.yaml

  # Stricter matching, confirm near-certain pairs automatically
  volmerge match spring.csv fall.csv --session review.yaml --threshold 0.7 --auto-confirm 0.95 --exclusive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := matchOptions(cmd)
			if err != nil {
				return err
			}

			a, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			b, err := dataset.Load(args[1])
			if err != nil {
				return err
			}
			slog.Info("Datasets loaded", "a", a.Path, "records_a", len(a.Records), "b", b.Path, "records_b", len(b.Records))

			candidates, err := matching.FindBestMatches(cmd.Context(), a.Records, b.Records, opts)
			if err != nil {
				return fmt.Errorf("failed to find matches: %w", err)
			}

			f := session.New(a, b, opts, candidates, exclusive)
			if cmd.Flags().Changed("auto-confirm") {
				confirmed := f.Review.AutoConfirm(autoConfirm)
				slog.Info("Auto-confirmed matches", "count", len(confirmed), "min_confidence", autoConfirm)
			}

			if err := f.Save(sessionPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d candidate matches (%d pending, %d confirmed)\n", len(candidates), len(f.Review.Pending), len(f.Review.Confirmed))
			fmt.Fprintf(out, "Session saved to: %s\n", sessionPath)
			if len(f.Review.Pending) > 0 {
				fmt.Fprintf(out, "\nReview candidates with:\n  volmerge review list --session %s\n", sessionPath)
			} else {
				fmt.Fprintf(out, "\nMerge with:\n  volmerge merge --session %s --out merged.csv\n", sessionPath)
			}
			return nil
		},
	}

	addMatchFlags(cmd)
	cmd.Flags().StringVarP(&sessionPath, "session", "s", "review.yaml", "Review session file to write")
	cmd.Flags().BoolVar(&exclusive, "exclusive", false, "Drop other candidates sharing a record once one is confirmed")
	cmd.Flags().Float64Var(&autoConfirm, "auto-confirm", 0.95, "Confirm candidates at or above this confidence without review")

	return cmd
}
