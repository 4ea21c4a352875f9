package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docflow/internal/extract"
)

var extractTarget string

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Extract a tag list or form template from a saved completion",
	Long: `Reads a raw completion from a file or stdin and prints the first JSON
array (--target tags) or JSON object (--target template) found in it, after
validation. Failures are printed with their kind and exit non-zero.

Examples:
  docflow extract answer.txt
  pbpaste | docflow extract --target template`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target extract.Target
		switch extractTarget {
		case "tags":
			target = extract.TargetTagList
		case "template":
			target = extract.TargetFormTemplate
		default:
			return fmt.Errorf("unknown target %q (want tags or template)", extractTarget)
		}

		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		res := extract.Extract(raw, target)

		out := map[string]any{"target": res.Target.String(), "ok": res.Ok()}
		switch {
		case !res.Ok():
			out["kind"] = res.Kind()
			out["error"] = res.Err.Error()
		case target == extract.TargetTagList:
			out["tags"] = res.Tags
		default:
			out["template"] = res.Template
		}
		if err := printJSON(cmd, out); err != nil {
			return err
		}
		return res.Err
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractTarget, "target", "tags", "structure to extract: tags or template")
}
