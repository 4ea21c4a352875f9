package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

var (
	exportOut    string
	exportOwner  string
	exportStatus string
	exportTag    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write documents to an XLSX workbook",
	Long: `Exports documents, optionally filtered by owner, status and tag, to an
XLSX workbook with title, status, tags, summary, created date and signed flag.

Examples:
  docflow export --owner alice --out alice.xlsx
  docflow export --status Signed --tag lease`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDB(); err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		xlsx, err := a.Export.ExportDocumentsXLSX(ctx, entity.DocumentFilter{
			OwnerID: exportOwner,
			Status:  constants.DocumentStatus(exportStatus),
			Tag:     exportTag,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, xlsx, 0o644); err != nil {
			return err
		}
		logger.Info("export.written", "path", exportOut, "bytes", len(xlsx))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "documents.xlsx", "output XLSX path")
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "only documents owned by this user")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only documents with this status")
	exportCmd.Flags().StringVar(&exportTag, "tag", "", "only documents carrying this tag")
}
