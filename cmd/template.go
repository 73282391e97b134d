package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propdesk/import-cli/internal/tabular"
)

var templateOutPath string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the canonical CSV import template",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data := tabular.Template()
		if templateOutPath == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(templateOutPath, data, 0o644); err != nil {
			return eris.Wrapf(err, "write template %s", templateOutPath)
		}
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateOutPath, "out", "", "output path (default stdout)")
	rootCmd.AddCommand(templateCmd)
}
