package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/byteowlz/artscrpr/pkg/extractor"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "Report the structure of a page to help choose selectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the report as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}
	if err := validateSource(args[0]); err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}

	ext, err := extractor.New(cfg, log.Logger)
	if err != nil {
		return exitError(ExitConfigError, "%v", err)
	}

	report, err := ext.Inspect(context.Background(), args[0])
	if err != nil {
		return exitError(exitCodeFor(err), "%v", err)
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", cfg.Output.Indent)
		if err := enc.Encode(report); err != nil {
			return exitError(ExitProcessError, "failed to encode report: %v", err)
		}
		return nil
	}
	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, r *extractor.Report) {
	fmt.Fprintln(w, "Content containers:")
	if len(r.Containers) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range r.Containers {
		fmt.Fprintf(w, "  %s: %d chars (%d clean), %d children\n", c.Selector, c.TextLength, c.CleanLength, c.Children)
		if c.ID != "" || c.Classes != "" {
			fmt.Fprintf(w, "    id=%q class=%q\n", c.ID, c.Classes)
		}
		fmt.Fprintf(w, "    %s\n", c.Preview)
	}

	fmt.Fprintln(w, "\nTitles:")
	for _, t := range r.Titles {
		fmt.Fprintf(w, "  %s: %s\n", t.Selector, t.Text)
	}

	fmt.Fprintln(w, "\nComments:")
	if r.CommentList {
		fmt.Fprintf(w, "  comment list with %d comments\n", r.CommentCount)
	} else {
		fmt.Fprintln(w, "  no comment list")
	}

	fmt.Fprintln(w, "\nExcludable elements:")
	for _, ex := range r.Exclusions {
		fmt.Fprintf(w, "  %s (%s): %d\n", ex.Name, ex.Selector, ex.Count)
	}

	fmt.Fprintf(w, "\nIDs: %s\n", strings.Join(r.IDs, ", "))
	fmt.Fprintf(w, "Classes: %s\n", strings.Join(r.Classes, ", "))

	if r.Recommendation != nil {
		fmt.Fprintf(w, "\nRecommended selector: %s (%d chars)\n  %s\n",
			r.Recommendation.Selector, r.Recommendation.CleanLength, r.Recommendation.Preview)
	}
}
