package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
)

var downloadOut string

var downloadCmd = &cobra.Command{
	Use:   "download <document-id>",
	Short: "Copy the uploaded file behind a document",
	Long: `Writes the stored scan or upload of a document to --out, or to its
original filename in the current directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", args[0], err)
		}
		if err := requireDB(); err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		meta, src, err := a.Documents.OpenFile(ctx, id)
		if err != nil {
			return err
		}
		defer src.Close()

		out := downloadOut
		if out == "" {
			out = meta.Filename
		}
		dst, err := os.Create(out)
		if err != nil {
			return err
		}
		n, err := io.Copy(dst, src)
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		logger.Info("download.written", "document_id", id, "path", out, "bytes", n)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadOut, "out", "", "output path (default: the uploaded filename)")
}
