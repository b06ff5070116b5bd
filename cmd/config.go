package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/spf13/cobra"
)

// Flags win over environment variables, which win over flag defaults.

func floatSetting(cmd *cobra.Command, flag, env string) (float64, error) {
	v, err := cmd.Flags().GetFloat64(flag)
	if err != nil {
		return 0, err
	}
	if cmd.Flags().Changed(flag) {
		return v, nil
	}
	if raw := os.Getenv(env); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", env, raw, err)
		}
		return f, nil
	}
	return v, nil
}

func intSetting(cmd *cobra.Command, flag, env string) (int, error) {
	v, err := cmd.Flags().GetInt(flag)
	if err != nil {
		return 0, err
	}
	if cmd.Flags().Changed(flag) {
		return v, nil
	}
	if raw := os.Getenv(env); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", env, raw, err)
		}
		return n, nil
	}
	return v, nil
}

func stringSetting(cmd *cobra.Command, flag, env string) (string, error) {
	v, err := cmd.Flags().GetString(flag)
	if err != nil {
		return "", err
	}
	if cmd.Flags().Changed(flag) {
		return v, nil
	}
	if raw := os.Getenv(env); raw != "" {
		return raw, nil
	}
	return v, nil
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", matching.DefaultThreshold, "Minimum confidence for a candidate match (env VOLMERGE_THRESHOLD)")
	cmd.Flags().Int("max-matches", matching.DefaultMaxMatches, "Maximum candidates to keep, negative for no limit (env VOLMERGE_MAX_MATCHES)")
	cmd.Flags().Int("workers", 0, "Parallel scoring workers, 0 for one per CPU (env VOLMERGE_WORKERS)")
	cmd.Flags().StringSlice("fields", matching.DefaultFields, "Record fields compared when scoring")
}

func matchOptions(cmd *cobra.Command) (matching.Options, error) {
	opts := matching.DefaultOptions()

	threshold, err := floatSetting(cmd, "threshold", "VOLMERGE_THRESHOLD")
	if err != nil {
		return opts, err
	}
	if threshold < 0 || threshold > 1 {
		return opts, fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}
	opts.Threshold = threshold

	if opts.MaxMatches, err = intSetting(cmd, "max-matches", "VOLMERGE_MAX_MATCHES"); err != nil {
		return opts, err
	}
	if opts.Workers, err = intSetting(cmd, "workers", "VOLMERGE_WORKERS"); err != nil {
		return opts, err
	}
	if opts.Fields, err = cmd.Flags().GetStringSlice("fields"); err != nil {
		return opts, err
	}
	return opts, nil
}
