package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propdesk/import-cli/internal/importer"
	"github.com/propdesk/import-cli/internal/mapping"
	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/quota"
)

var (
	importCSVPath string
	importMapPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import property records from a CSV file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		actor, err := buildActor()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		ledger := quota.NewLedger(st, cfg.Quota.DefaultMonthlyLimit)
		session := importer.NewSession(st, ledger, actor, cfg.Import.SessionConfig())

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrapf(err, "open csv %s", importCSVPath)
		}
		defer f.Close() //nolint:errcheck

		if err := session.LoadFile(f); err != nil {
			return err
		}
		if importMapPath != "" {
			if err := mapping.LoadOverrides(session.Mapping(), importMapPath); err != nil {
				return err
			}
		}
		if err := session.ConfirmMapping(); err != nil {
			return err
		}

		validation, err := session.Validate(ctx)
		if err != nil {
			return err
		}
		if validation.Failed > 0 {
			printProgress(cmd, "validation", validation)
			return eris.Errorf("validation failed for %d of %d rows; nothing was imported", validation.Failed, validation.Total)
		}

		report, err := session.Upload(ctx)
		if report != nil {
			printProgress(cmd, "upload", report)
		}
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("csv", importCSVPath),
			zap.Int("success", report.Success),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func printProgress(cmd *cobra.Command, phase string, p *model.ImportProgress) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: total=%d processed=%d success=%d failed=%d\n",
		phase, p.Total, p.Processed, p.Success, p.Failed)
	for _, e := range p.Errors {
		fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Error)
	}
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	importCmd.Flags().StringVar(&importMapPath, "map", "", "path to YAML column mapping overrides")
	_ = importCmd.MarkFlagRequired("csv")
	registerActorFlags(importCmd)
	rootCmd.AddCommand(importCmd)
}
