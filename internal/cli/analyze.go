package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wikitrust/internal/model"
	"github.com/ppiankov/wikitrust/internal/pipeline"
)

var (
	outJSON  string
	outMD    string
	timeout  time.Duration
	noCache  bool
	noFooter bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <title|url>",
	Short: "Score the revision history of one wiki article",
	Long: `Analyze fetches the recent revision history of an article, classifies
its contributors and computes a 0-100 confidence score with a risk tier.

Example:
  wikitrust analyze "Go (programming language)"
  wikitrust analyze https://fr.wikipedia.org/wiki/Tour_Eiffel --lang fr
  wikitrust analyze Laksa --json laksa.json --md laksa.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// applyRunFlags folds the per-command flags into the loaded configuration
func applyRunFlags(c *model.Config) {
	if noCache {
		c.Cache.Enabled = false
	}
	if noFooter {
		c.Output.IncludeFooter = false
	}
}

// useArticleWiki points the configuration at the wiki an article URL names.
// Plain titles keep the configured wiki.
func useArticleWiki(c *model.Config, target string) {
	if origin := pipeline.WikiOrigin(target); origin != "" {
		c.Wiki.BaseURL = origin
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	title := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	applyRunFlags(cfg)
	useArticleWiki(cfg, title)
	logger := newLogger(cfg.Logging, os.Stderr)

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", title)
		fmt.Fprintf(os.Stderr, "Wiki:      %s\n", cfg.Wiki.BaseURL)
		fmt.Fprintf(os.Stderr, "Timeout:   %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)

	report, err := p.ProduceAnalysis(ctx, title)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Scored %d revisions\n", report.Analysis.BaseRevisionCount)
		fmt.Fprintf(os.Stderr, "✓ %d signals, %d reasons\n", len(report.Analysis.Signals), len(report.Analysis.Reasons))
	}

	if err := p.RenderReport(report, outJSON, outMD, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if outJSON != "" {
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	return nil
}
