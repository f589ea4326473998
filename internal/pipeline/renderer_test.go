package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wikitrust/internal/i18n"
	"github.com/ppiankov/wikitrust/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Title:     "Tour Eiffel",
		SourceURL: "https://fr.wikipedia.org/wiki/Tour_Eiffel",
		FetchedAt: testNow,
		Analysis: model.AnalysisResult{
			Score:             90,
			Risk:              model.RiskLow,
			BaseRevisionCount: 300,
			Summary:           "30000+ revisions | 4100 contributors",
			TopAuthors: []model.AuthorContribution{
				{User: "Alice", AddedWords: 1200, SharePct: 40, Level: model.LevelRecognized, LevelLabel: "recognized", Recognized: true},
				{User: "Bob Smith", AddedWords: 300, SharePct: 10, Level: model.LevelNew, LevelLabel: "new"},
			},
			Signals: []model.Signal{
				{Type: model.SignalAuthorTrust, Severity: model.SeverityInfo, Delta: 10, Description: "main authors are recognized contributors"},
			},
		},
		RiskLabel:    "Low risk",
		Why:          "Why: main authors are recognized contributors",
		Quality:      model.QualityFeatured,
		QualityLabel: "featured article",
		WordCount:    5400,
		RecentContributors: []model.RecentContributor{
			{User: "Carol", ProfileURL: "https://fr.wikipedia.org/wiki/Special:Contributions/Carol", DiffURL: "https://fr.wikipedia.org/w/index.php?diff=2&oldid=1"},
		},
	}
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(true, i18n.New("en")).Markdown(sampleReport())

	assert.Contains(t, md, "# Tour Eiffel\n")
	assert.Contains(t, md, "**Confidence: 90/100** · Low risk")
	assert.Contains(t, md, "> Why: main authors are recognized contributors")
	assert.Contains(t, md, "- 5400 words")
	assert.Contains(t, md, "- Quality: featured article")
	assert.Contains(t, md, "## Top contributors\n")
	assert.Contains(t, md, "| 1 | [Alice](https://fr.wikipedia.org/wiki/Special:Contributions/Alice) | 1200 | 40% | recognized |")
	assert.Contains(t, md, "[Bob Smith](https://fr.wikipedia.org/wiki/Special:Contributions/Bob%20Smith)")
	assert.Contains(t, md, "- [Carol](https://fr.wikipedia.org/wiki/Special:Contributions/Carol) ([diff](https://fr.wikipedia.org/w/index.php?diff=2&oldid=1))")
	assert.Contains(t, md, "`author_trust` +10")
	assert.Contains(t, md, "_Score based on the last 300 revisions_")
	assert.Contains(t, md, "Generated by wikitrust")
}

func TestRenderer_MarkdownWithoutData(t *testing.T) {
	report := sampleReport()
	report.Analysis.TopAuthors = nil
	report.Analysis.Signals = nil
	report.RecentContributors = nil
	report.Why = ""

	md := NewRenderer(false, i18n.New("fr")).Markdown(report)

	assert.Contains(t, md, "## Principaux contributeurs\n")
	assert.Contains(t, md, "_aucune donnée de contributeur_")
	assert.NotContains(t, md, "Pourquoi")
	assert.NotContains(t, md, "## Signals")
	assert.NotContains(t, md, "Generated by wikitrust")
}

func TestRenderer_Files(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(false, nil)
	report := sampleReport()

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, r.RenderJSON(report, jsonPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded model.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 90, decoded.Analysis.Score)
	assert.Equal(t, model.QualityFeatured, decoded.Quality)
	assert.Len(t, decoded.Analysis.TopAuthors, 2)

	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, r.RenderMarkdown(report, mdPath))
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Tour Eiffel")
}

func TestRenderer_FileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "report")
	r := NewRenderer(false, nil)

	assert.Error(t, r.RenderJSON(sampleReport(), missing+".json"))
	assert.Error(t, r.RenderMarkdown(sampleReport(), missing+".md"))
}

func TestRenderer_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(false, i18n.New("en")).RenderSummary(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Tour Eiffel")
	assert.Contains(t, out, "Confidence: 90/100  [Low risk]")
	assert.Contains(t, out, "Alice (1200 words added, 40%)")
	assert.Contains(t, out, "Score based on the last 300 revisions")
}
