package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/quota"
)

var quotaOrgID string

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the organization's upload usage for the current month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		ledger := quota.NewLedger(st, cfg.Quota.DefaultMonthlyLimit)
		ul, err := ledger.Usage(ctx, quotaOrgID)
		if err != nil {
			return err
		}

		month := model.MonthKey(time.Now())
		out := cmd.OutOrStdout()
		if ul == nil {
			fmt.Fprintf(out, "org %s: no uploads recorded for %s\n", quotaOrgID, month)
			return nil
		}
		fmt.Fprintf(out, "org %s: %d of %d uploads used for %s\n",
			ul.OrgID, ul.UploadsUsed, ul.UploadsLimit, ul.Month)
		return nil
	},
}

func init() {
	quotaCmd.Flags().StringVar(&quotaOrgID, "org", "", "organization id (required)")
	_ = quotaCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(quotaCmd)
}
