package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/wikitrust/internal/i18n"
	"github.com/ppiankov/wikitrust/internal/model"
)

// Renderer writes reports as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
	translator    i18n.Translator
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool, translator i18n.Translator) *Renderer {
	if translator == nil {
		translator = i18n.New("en")
	}
	return &Renderer{includeFooter: includeFooter, translator: translator}
}

// WriteJSON encodes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return r.WriteJSON(f, report)
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	t := r.translator.Translate
	a := report.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Title)
	fmt.Fprintf(&b, "<%s>\n\n", report.SourceURL)
	fmt.Fprintf(&b, "**%s** · %s\n\n", t("labelConfidence", strconv.Itoa(a.Score)), report.RiskLabel)
	fmt.Fprintf(&b, "%s\n\n", a.Summary)
	fmt.Fprintf(&b, "- %s\n", t("labelWords", strconv.Itoa(report.WordCount)))
	fmt.Fprintf(&b, "- %s\n\n", t("labelQuality", report.QualityLabel))

	if report.Why != "" {
		fmt.Fprintf(&b, "> %s\n\n", report.Why)
	}

	fmt.Fprintf(&b, "## %s\n\n", heading(t("labelTopContributors")))
	if len(a.TopAuthors) == 0 {
		fmt.Fprintf(&b, "_%s_\n\n", t("noContributorData"))
	} else {
		b.WriteString("| # | User | Words | Share | Level |\n")
		b.WriteString("|---|------|-------|-------|-------|\n")
		for i, author := range a.TopAuthors {
			fmt.Fprintf(&b, "| %d | [%s](%s) | %d | %d%% | %s |\n",
				i+1, author.User, ProfileURL(baseOf(report), author.User),
				author.AddedWords, author.SharePct, author.LevelLabel)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", heading(t("labelRecentContributors")))
	if len(report.RecentContributors) == 0 {
		fmt.Fprintf(&b, "_%s_\n\n", t("noContributorData"))
	} else {
		for _, c := range report.RecentContributors {
			fmt.Fprintf(&b, "- [%s](%s) ([%s](%s))\n", c.User, c.ProfileURL, t("diffLinkText"), c.DiffURL)
		}
		b.WriteString("\n")
	}

	if len(a.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range a.Signals {
			fmt.Fprintf(&b, "- `%s` %+d: %s\n", s.Type, s.Delta, s.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_%s_\n", t("noteBaseScore", strconv.Itoa(a.BaseRevisionCount)))

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "_Generated by wikitrust on %s. The score is a heuristic signal, not a verdict._\n",
			report.FetchedAt.Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	t := r.translator.Translate
	a := report.Analysis

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", report.Title)
	fmt.Fprintf(w, "  %s  [%s]\n", t("labelConfidence", strconv.Itoa(a.Score)), report.RiskLabel)
	fmt.Fprintf(w, "  %s\n", a.Summary)
	fmt.Fprintf(w, "  %s · %s\n", t("labelWords", strconv.Itoa(report.WordCount)), t("labelQuality", report.QualityLabel))
	if report.Why != "" {
		fmt.Fprintf(w, "  %s\n", report.Why)
	}

	fmt.Fprintf(w, "  %s", t("labelTopContributors"))
	if len(a.TopAuthors) == 0 {
		fmt.Fprintf(w, " %s", t("noContributorData"))
	}
	for _, author := range a.TopAuthors {
		fmt.Fprintf(w, " %s (%d %s, %d%%)", author.User, author.AddedWords, t("wordsAddedUnit"), author.SharePct)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", t("noteBaseScore", strconv.Itoa(a.BaseRevisionCount)))
	fmt.Fprintln(w)
}

// baseOf recovers the wiki origin from the article URL
func baseOf(report *model.Report) string {
	if i := strings.Index(report.SourceURL, "/wiki/"); i >= 0 {
		return report.SourceURL[:i]
	}
	return report.SourceURL
}

// heading drops the trailing colon of an inline label
func heading(label string) string {
	return strings.TrimRight(label, " :")
}

// RenderReport writes the requested files and prints the summary to w.
// Empty paths are skipped.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, w io.Writer) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return err
		}
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return err
		}
	}
	if w != nil {
		p.renderer.RenderSummary(w, report)
	}
	return nil
}
