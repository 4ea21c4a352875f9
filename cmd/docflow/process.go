package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
)

var processForce bool

var processCmd = &cobra.Command{
	Use:   "process <document-id>",
	Short: "Run OCR and analysis for one stored document",
	Long: `Runs the processing pipeline synchronously for a document that has an
uploaded file: text extraction, then summary and tag suggestions. Documents
that were already analyzed are left alone unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", args[0], err)
		}
		if err := requireDB(); err != nil {
			return err
		}
		if err := requireLLM(); err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		start := time.Now()
		jobID, err := a.Processor.ProcessDocument(ctx, id, processForce)
		if err != nil {
			logger.Error("process.failed", "document_id", id, "job_id", jobID, "error", err)
			return err
		}
		doc, err := a.Documents.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"job_id":     jobID,
			"skipped":    jobID == uuid.Nil,
			"document":   doc,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	},
}

func init() {
	processCmd.Flags().BoolVar(&processForce, "force", false, "re-run OCR and analysis on an analyzed document")
}
