package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propdesk/import-cli/internal/mapping"
	"github.com/propdesk/import-cli/internal/tabular"
)

var (
	previewCSVPath string
	previewRows    int
)

// previewCmd shows the parsed headers, the proposed mapping, and the first
// few rows so an operator can build an overrides file before importing.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview a CSV file and the proposed column mapping",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(previewCSVPath)
		if err != nil {
			return eris.Wrapf(err, "open csv %s", previewCSVPath)
		}
		defer f.Close() //nolint:errcheck

		doc, err := tabular.Parse(f)
		if err != nil {
			return err
		}

		proposed := mapping.Reconcile(doc.Headers)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "headers: %d, rows: %d\n\n", len(doc.Headers), len(doc.Rows))
		fmt.Fprintln(out, "proposed mapping:")
		for _, h := range doc.Headers {
			fmt.Fprintf(out, "  %-30s -> %s\n", h, proposed[h])
		}

		fmt.Fprintln(out, "\npreview:")
		for _, row := range doc.Preview(previewRows) {
			fmt.Fprintf(out, "  row %d:\n", row.Index)
			for _, h := range doc.Headers {
				if v := row.Get(h); v != "" {
					fmt.Fprintf(out, "    %-28s %s\n", h+":", v)
				}
			}
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewCSVPath, "csv", "", "path to CSV file (required)")
	previewCmd.Flags().IntVar(&previewRows, "rows", 5, "number of rows to preview")
	_ = previewCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(previewCmd)
}
