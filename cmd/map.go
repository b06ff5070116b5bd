package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/volmerge/internal/assist"
	"github.com/lehigh-university-libraries/volmerge/internal/dataset"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
	"github.com/lehigh-university-libraries/volmerge/internal/schema"
	"github.com/spf13/cobra"
)

func newMapCmd() *cobra.Command {
	var outPath string
	var provider string
	var model string

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Map a file's headers onto the canonical schema",
		Long: `Suggests a canonical field for every header of a CSV, JSON, JSONL or Parquet
file and reports which required fields are still missing.

Headers matching a known alias exactly get confidence 1.0, headers containing
(or contained in) an alias get 0.7. With --assist, headers left unmapped are
sent to an LLM which may pick one of the remaining fields (confidence 0.5).`,
		Example: `  # Show the suggested mapping
  volmerge map volunteers.csv

  # Ask Gemini about unrecognised headers and write a file with canonical headers
  volmerge map volunteers.csv --assist gemini --out mapped.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			mapping := schema.AutoMapHeaders(ds.Headers)
			if provider != "" {
				assistant, err := assist.New(provider, model)
				if err != nil {
					return err
				}
				mapping, err = schema.DefaultSchema.AutoMapHeadersAssisted(cmd.Context(), ds.Headers, assistant)
				if err != nil {
					return fmt.Errorf("failed to map headers: %w", err)
				}
			}

			validation := schema.ValidateMapping(mapping.Fields)
			printMapping(cmd.OutOrStdout(), ds.Headers, mapping, validation)

			if outPath == "" {
				return nil
			}

			renamed := renameRecords(ds.Records, mapping)
			if err := dataset.WriteFile(outPath, renamed); err != nil {
				return err
			}
			slog.Info("Wrote mapped file", "path", outPath, "records", len(renamed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the records with canonical headers to this file (.csv, .json, or .jsonl)")
	cmd.Flags().StringVar(&provider, "assist", "", "LLM provider for unmapped headers (gemini, openai, or ollama)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults to provider's default)")

	return cmd
}

func renameRecords(rs []records.Record, mapping schema.HeaderMapping) []records.Record {
	names := make(map[string]string, len(mapping.Fields))
	for header, field := range mapping.Fields {
		names[header] = string(field)
	}
	out := make([]records.Record, len(rs))
	for i, r := range rs {
		out[i] = r.Rename(names)
	}
	return out
}

func printMapping(out io.Writer, headers []string, mapping schema.HeaderMapping, v schema.Validation) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEADER\tFIELD\tCONFIDENCE")
	for _, h := range headers {
		field, ok := mapping.Fields[h]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t-\n", h)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\n", h, field, mapping.Confidence[h])
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nCoverage: %.0f%%\n", v.Coverage*100)
	if v.IsValid {
		fmt.Fprintln(out, "All required fields mapped")
		return
	}
	missing := make([]string, len(v.MissingRequired))
	for i, f := range v.MissingRequired {
		missing[i] = string(f)
	}
	fmt.Fprintf(out, "Missing required fields: %s\n", strings.Join(missing, ", "))
}
