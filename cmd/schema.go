package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/volmerge/internal/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the canonical volunteer schema",
		Long: `Prints the canonical fields every imported file is mapped onto, with their
types, whether they are required, and the header aliases recognised for each.`,
		Example: `  # Human readable table
  volmerge schema

  # Machine readable
  volmerge schema --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSchema(cmd.OutOrStdout(), schema.DefaultSchema, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, or yaml)")

	return cmd
}

func printSchema(out io.Writer, s *schema.Schema, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Fields())
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(s.Fields()); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tALIASES")
		for _, f := range s.Fields() {
			required := ""
			if f.Required {
				required = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Type, required, strings.Join(f.Aliases, ", "))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
