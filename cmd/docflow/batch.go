package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/entity"
	ingestsvc "github.com/joseph-ayodele/docflow/internal/services/ingest"
)

var (
	batchDir   string
	batchOut   string
	batchOwner string
	batchInMem bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Ingest a folder of scans, analyze them and export a workbook",
	Long: `Walks --dir for supported scans, stores each one, runs OCR and analysis
on every new document and writes the results to an XLSX workbook.

With --inmem nothing is persisted besides the uploaded files and the workbook.

Examples:
  docflow batch --dir ~/Scans --inmem
  docflow batch --dir ~/Scans --owner alice --out ~/scans.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchDir == "" {
			return errors.New("--dir is required")
		}
		if err := requireLLM(); err != nil {
			return err
		}
		if batchInMem {
			cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		}
		if err := requireDB(); err != nil {
			return err
		}
		out := batchOut
		if out == "" {
			out = filepath.Join(filepath.Dir(filepath.Clean(batchDir)), "documents.xlsx")
		}

		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.Ingest.IngestDirectory(ctx, ingestsvc.DirectoryIngestRequest{
			OwnerID:  batchOwner,
			RootPath: batchDir,
		})
		if err != nil {
			return err
		}
		for _, r := range res.Results {
			if r.Err != "" {
				logger.Warn("batch.file_failed", "path", r.SourcePath, "error", r.Err)
			}
		}
		// Drain the processing queue before exporting.
		a.Queue.Shutdown(ctx)

		xlsx, err := a.Export.ExportDocumentsXLSX(ctx, entity.DocumentFilter{OwnerID: batchOwner})
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, xlsx, 0o644); err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"scanned":      res.Statistics.Scanned,
			"matched":      res.Statistics.Matched,
			"succeeded":    res.Statistics.Succeeded,
			"deduplicated": res.Statistics.Deduplicated,
			"failed":       res.Statistics.Failed,
			"out":          out,
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of scans to process (required)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output XLSX path (default: documents.xlsx next to --dir)")
	batchCmd.Flags().StringVar(&batchOwner, "owner", "local", "owner of the ingested documents")
	batchCmd.Flags().BoolVar(&batchInMem, "inmem", false, "use an in-memory SQLite database")
}
