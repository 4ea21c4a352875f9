package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/services/templates"
)

var (
	ocrSave  bool
	ocrOwner string
)

var ocrTemplateCmd = &cobra.Command{
	Use:   "ocr-template <image>",
	Short: "Generate a form template from a scanned form",
	Long: `OCRs a scanned form (image or PDF) and asks the completion service for a
form template with a title and labeled fields. With --save the template is
stored for --owner.

Examples:
  docflow ocr-template lease.png
  docflow ocr-template lease.png --save --owner alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLLM(); err != nil {
			return err
		}
		ctx := cmd.Context()

		if !ocrSave {
			svc := templates.NewService(nil, nil, nil,
				app.NewCompleter(cfg.LLM, logger), app.NewOCR(cfg.OCR, logger), app.RetryConfig(cfg.LLM), logger)
			gen, err := svc.GenerateFromImage(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"template": gen.Template, "attempts": gen.Attempts})
		}

		if ocrOwner == "" {
			return errors.New("--owner is required with --save")
		}
		if err := requireDB(); err != nil {
			return err
		}
		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		gen, err := a.Templates.GenerateFromImage(ctx, args[0])
		if err != nil {
			return err
		}
		t, err := a.Templates.Save(ctx, templates.SaveRequest{OwnerID: ocrOwner, Template: gen.Template, SourceText: gen.SourceText})
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"template": t, "attempts": gen.Attempts})
	},
}

func init() {
	ocrTemplateCmd.Flags().BoolVar(&ocrSave, "save", false, "store the generated template")
	ocrTemplateCmd.Flags().StringVar(&ocrOwner, "owner", "", "owner of the saved template")
}
