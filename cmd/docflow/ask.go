package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/services/assistant"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about a document term",
	Example: `  docflow ask "What does indemnify mean?"
  docflow ask what is a notarized signature`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLLM(); err != nil {
			return err
		}
		svc := assistant.NewService(app.NewCompleter(cfg.LLM, logger), logger)
		answer, err := svc.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
		return err
	},
}
