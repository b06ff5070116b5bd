package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/session"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var sessionPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Write the merged dataset for a review session",
		Long: `Builds the merged dataset from the confirmed candidates of a review session:
one record per confirmed pair (values from fileB win on conflicts), then every
fileA record not part of a confirmed pair, then every such fileB record.

Each output record carries _merge_source (both, file_a or file_b) and merged
records also carry _merge_confidence. Pending candidates are ignored.`,
		Example: `  volmerge merge --session review.yaml --out merged.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := session.Load(sessionPath)
			if err != nil {
				return err
			}
			a, b, err := f.LoadDatasets()
			if err != nil {
				return err
			}

			result := matching.ExecuteMerge(f.Review.Confirmed, a.Records, b.Records)
			if err := dataset.WriteFile(outPath, result.Records()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merge complete!\n")
			fmt.Fprintf(out, "  Total records:  %d\n", result.Stats.TotalRecords)
			fmt.Fprintf(out, "  Merged:         %d\n", result.Stats.MergedRecords)
			fmt.Fprintf(out, "  Only in A:      %d\n", result.Stats.FileAOnly)
			fmt.Fprintf(out, "  Only in B:      %d\n", result.Stats.FileBOnly)
			if len(f.Review.Pending) > 0 {
				fmt.Fprintf(out, "  Unreviewed:     %d (kept as separate records)\n", len(f.Review.Pending))
			}
			fmt.Fprintf(out, "Output location: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionPath, "session", "s", "review.yaml", "Review session file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Merged output file (.csv, .json, or .jsonl)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
