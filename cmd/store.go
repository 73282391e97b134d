package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/store"
)

// actor flags shared by the commands that touch org-scoped data.
var (
	flagOrgID       string
	flagUserID      string
	flagUploadLimit int
)

func registerActorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagOrgID, "org", "", "organization id (required)")
	cmd.Flags().StringVar(&flagUserID, "user", "", "acting user id (required)")
	cmd.Flags().IntVar(&flagUploadLimit, "upload-limit", 0, "plan-derived monthly upload limit (0 = use default)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("user")
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

func buildActor() (model.Actor, error) {
	if flagOrgID == "" {
		return model.Actor{}, eris.New("organization id is required (--org)")
	}
	if flagUserID == "" {
		return model.Actor{}, eris.New("user id is required (--user)")
	}
	return model.Actor{
		UserID:      flagUserID,
		OrgID:       flagOrgID,
		UploadLimit: flagUploadLimit,
	}, nil
}
