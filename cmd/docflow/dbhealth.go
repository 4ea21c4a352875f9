package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/entity"
	repo "github.com/joseph-ayodele/docflow/internal/repository"
	"github.com/joseph-ayodele/docflow/internal/server"
)

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check the database connection and schema",
	Long: `Connects to DB_URL, applies pending migrations, pings the database and
prints the dialect, the document count and the known tags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDB(); err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := server.ConnectDB(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer server.CloseDB(store, logger)

		if err := store.HealthCheck(ctx, time.Second); err != nil {
			return err
		}
		docs := repo.NewDocumentRepository(store, logger)
		all, err := docs.List(ctx, entity.DocumentFilter{})
		if err != nil {
			return err
		}
		tags, err := docs.ListTags(ctx, "")
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"status":    "ok",
			"dialect":   store.Dialect(),
			"documents": len(all),
			"tags":      tags,
		})
	},
}
