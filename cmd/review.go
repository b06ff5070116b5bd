package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
	"github.com/lehigh-university-libraries/volmerge/internal/session"
	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	var sessionPath string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Confirm or reject candidate matches in a review session",
		Long: `Works through the pending candidates of a session file written by
"volmerge match". Confirmed candidates are merged into one record by
"volmerge merge"; rejected candidates are dropped and both records are kept.`,
	}

	cmd.PersistentFlags().StringVarP(&sessionPath, "session", "s", "review.yaml", "Review session file")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending and confirmed candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := session.Load(sessionPath)
			if err != nil {
				return err
			}
			printReview(cmd.OutOrStdout(), f)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "confirm <id>...",
		Short: "Confirm candidates as the same volunteer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateReview(cmd, sessionPath, args, (*matching.Review).Confirm, "Confirmed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reject <id>...",
		Short: "Reject candidates so both records are kept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateReview(cmd, sessionPath, args, (*matching.Review).Reject, "Rejected")
		},
	})

	var minConfidence float64
	auto := &cobra.Command{
		Use:   "auto",
		Short: "Confirm every pending candidate at or above a confidence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := session.Load(sessionPath)
			if err != nil {
				return err
			}
			confirmed := f.Review.AutoConfirm(minConfidence)
			if err := f.Save(sessionPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %d candidates, %d pending\n", len(confirmed), len(f.Review.Pending))
			return nil
		},
	}
	auto.Flags().Float64Var(&minConfidence, "min", 0.95, "Minimum confidence to confirm")
	cmd.AddCommand(auto)

	return cmd
}

// updateReview applies op to every ID and saves once. An unknown ID aborts
// without saving so a typo never leaves the session half-updated.
func updateReview(cmd *cobra.Command, sessionPath string, ids []string, op func(*matching.Review, string) (matching.Candidate, error), verb string) error {
	f, err := session.Load(sessionPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		c, err := op(&f.Review, id)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(out, "%s %s (A#%d, B#%d, %.2f)\n", verb, c.ID, c.IndexA, c.IndexB, c.Confidence)
	}

	if err := f.Save(sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d pending, %d confirmed, %d rejected\n", len(f.Review.Pending), len(f.Review.Confirmed), f.Review.Rejected)
	return nil
}

func printReview(out io.Writer, f *session.File) {
	fields := f.Config.Fields
	if len(fields) == 0 {
		fields = matching.DefaultFields
	}

	printCandidates := func(title string, cs []matching.Candidate) {
		fmt.Fprintf(out, "%s (%d)\n", title, len(cs))
		if len(cs) == 0 {
			fmt.Fprintln(out)
			return
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tA\tB\tCONFIDENCE\tRECORD A\tRECORD B")
		for _, c := range cs {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%s\t%s\n", c.ID, c.IndexA, c.IndexB, c.Confidence, summarize(c.RecordA, fields), summarize(c.RecordB, fields))
		}
		_ = tw.Flush()
		fmt.Fprintln(out)
	}

	printCandidates("Pending", f.Review.Pending)
	printCandidates("Confirmed", f.Review.Confirmed)
	fmt.Fprintf(out, "Rejected: %d\n", f.Review.Rejected)
}

// summarize renders the compared fields of a record on one line
func summarize(r records.Record, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v, ok := r.Text(f); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " | ")
}
