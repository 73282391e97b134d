package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propdesk/import-cli/internal/importer"
	"github.com/propdesk/import-cli/internal/mapping"
	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/normalize"
	"github.com/propdesk/import-cli/internal/tabular"
)

var (
	validateCSVPath string
	validateMapPath string
)

// validateCmd runs parse + mapping + validation without touching the store.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a CSV file without writing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(validateCSVPath)
		if err != nil {
			return eris.Wrapf(err, "open csv %s", validateCSVPath)
		}
		defer f.Close() //nolint:errcheck

		doc, err := tabular.Parse(f)
		if err != nil {
			return err
		}

		session := mapping.NewSession(mapping.Reconcile(doc.Headers))
		if validateMapPath != "" {
			if err := mapping.LoadOverrides(session, validateMapPath); err != nil {
				return err
			}
		}
		if !session.RequiredSatisfied() {
			return importer.ErrRequiredFieldUnmapped
		}

		m := session.Mapping()
		now := time.Now().UTC()
		progress := &model.ImportProgress{Total: len(doc.Rows)}
		for _, row := range doc.Rows {
			_, issues := normalize.Normalize(row, m, now)
			if len(issues) == 0 {
				progress.RecordSuccess()
				continue
			}
			progress.Processed++
			progress.Failed++
			for _, msg := range issues {
				progress.Errors = append(progress.Errors, model.RowError{Row: row.Index, Error: msg})
			}
		}

		printProgress(cmd, "validation", progress)
		if progress.Failed > 0 {
			return eris.Errorf("validation failed for %d of %d rows", progress.Failed, progress.Total)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateCSVPath, "csv", "", "path to CSV file (required)")
	validateCmd.Flags().StringVar(&validateMapPath, "map", "", "path to YAML column mapping overrides")
	_ = validateCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(validateCmd)
}
