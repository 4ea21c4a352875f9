package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/extract"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
)

var (
	summarizeRaw    bool
	summarizeMarker string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file|-]",
	Short: "Summarize a document and suggest tags",
	Long: `Sends document text to the completion service and prints the summary
with its suggested tags. With --raw the input is treated as a completion
that is only split and parsed.

Examples:
  docflow summarize lease.txt
  docflow summarize --raw answer.txt --marker "Then suggest"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		marker := summarizeMarker
		if marker == "" {
			marker = cfg.LLM.TagMarker
		}
		seg := extract.NewSegmenter(marker)

		if summarizeRaw {
			a, err := extract.Summarize(input, seg)
			if err != nil && !errors.Is(err, extract.ErrNoBlockFound) {
				return err
			}
			return printJSON(cmd, analysisJSON(a, 0))
		}

		if strings.TrimSpace(input) == "" {
			return errors.New("no text to summarize")
		}
		if err := requireLLM(); err != nil {
			return err
		}
		a, attempt, err := documents.Summarize(cmd.Context(), app.NewCompleter(cfg.LLM, logger),
			input, seg, app.RetryConfig(cfg.LLM), logger)
		if err != nil {
			return err
		}
		return printJSON(cmd, analysisJSON(a, attempt.Number))
	},
}

func analysisJSON(a extract.Analysis, attempts int) map[string]any {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	out := map[string]any{"summary": a.Summary, "tags": tags}
	if attempts > 0 {
		out["attempts"] = attempts
	}
	return out
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeRaw, "raw", false, "parse the input as a completion instead of calling the service")
	summarizeCmd.Flags().StringVar(&summarizeMarker, "marker", "", "phrase separating summary from tags (default: TAG_MARKER)")
}
