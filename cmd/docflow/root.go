package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/common"
)

var (
	cfgFile  string
	logLevel string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Document templates, summaries and tags from scanned paperwork",
	Long: `docflow turns scanned forms into fillable templates and summarizes
documents with suggested tags using a hosted completion service.

Commands that only parse text (extract, summarize --raw) work offline.
The others read DB_URL, OPENAI_API_KEY and friends from the environment
or from the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c
		logger = common.NewLogger(os.Stderr, cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./docflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(extractCmd, ocrTemplateCmd, summarizeCmd, exportCmd, askCmd, downloadCmd, processCmd, batchCmd, dbhealthCmd)
}

func requireLLM() error {
	if cfg.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	return nil
}

func requireDB() error {
	if cfg.Database.DSN == "" {
		return errors.New("DB_URL is required")
	}
	return nil
}

// readInput reads the named file, or stdin when the name is empty or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	return string(b), err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
