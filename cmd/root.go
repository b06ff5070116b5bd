package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "volmerge",
		Short: "Volunteer data import and record merge tool",
		Long: `Volmerge maps volunteer spreadsheet headers onto a canonical schema and
merges two exports of volunteer records.

Candidate duplicate pairs are scored by fuzzy field similarity, reviewed by a
person (confirm or reject), and merged into one dataset that records where each
row came from.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newMapCmd())
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
