package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wikitrust/internal/mediawiki"
	"github.com/ppiankov/wikitrust/internal/model"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func daysAgo(days float64) string {
	return testNow.Add(-time.Duration(days * float64(24*time.Hour))).Format(time.RFC3339)
}

// fakeSource serves canned page data and records what was asked
type fakeSource struct {
	revisions    []model.Revision
	first        *model.Revision
	latest       []model.Revision
	totalEdits   model.CountInfo
	totalEditors model.CountInfo
	categories   []string
	profiles     map[string]model.UserProfile
	words        int

	revisionsErr  error
	categoriesErr error
	profilesErr   error
	wordsErr      error

	mu             sync.Mutex
	profileNames   []string
	profileCalls   int
	wordCountCalls int
	titles         []string
}

func (f *fakeSource) BaseURL() string { return "https://en.wikipedia.org" }

func (f *fakeSource) record(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
}

func (f *fakeSource) RevisionMeta(ctx context.Context, title string, max int) ([]model.Revision, error) {
	f.record(title)
	return f.revisions, f.revisionsErr
}

func (f *fakeSource) FirstRevision(ctx context.Context, title string) (*model.Revision, error) {
	f.record(title)
	return f.first, nil
}

func (f *fakeSource) LatestRevisions(ctx context.Context, title string, count int) ([]model.Revision, error) {
	f.record(title)
	return f.latest, nil
}

func (f *fakeSource) TotalEditCount(ctx context.Context, title string) model.CountInfo {
	return f.totalEdits
}

func (f *fakeSource) TotalEditorCount(ctx context.Context, title string) model.CountInfo {
	return f.totalEditors
}

func (f *fakeSource) CollectCategories(ctx context.Context, title string) ([]string, error) {
	f.record(title)
	return f.categories, f.categoriesErr
}

func (f *fakeSource) ResolveProfiles(ctx context.Context, usernames []string) (map[string]model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	f.profileNames = append([]string(nil), usernames...)
	return f.profiles, f.profilesErr
}

func (f *fakeSource) ArticleWordCount(ctx context.Context, title string) (int, error) {
	f.mu.Lock()
	f.wordCountCalls++
	f.mu.Unlock()
	return f.words, f.wordsErr
}

// youngPage is a ten-day-old page with a dozen single-edit contributors
func youngPage() *fakeSource {
	var revisions []model.Revision
	for i := 0; i < 12; i++ {
		revisions = append(revisions, model.Revision{
			User:      fmt.Sprintf("U%d", i),
			UserID:    int64Ptr(int64(i + 1)),
			Timestamp: daysAgo(float64(i) * 0.5),
		})
	}
	return &fakeSource{
		revisions: revisions,
		first:     &model.Revision{User: "U11", Timestamp: daysAgo(10)},
		latest: []model.Revision{
			{User: "U0", Timestamp: daysAgo(0), RevID: int64Ptr(900), ParentID: int64Ptr(899)},
			{User: "", Timestamp: daysAgo(0.5), RevID: int64Ptr(899)},
		},
		totalEdits:   model.CountInfo{Count: intPtr(12)},
		totalEditors: model.CountInfo{Count: intPtr(25000), Capped: true},
		categories:   []string{"Category:Featured articles", "Category:Programming languages"},
		profiles:     map[string]model.UserProfile{},
		words:        812,
	}
}

func newTestPipeline(src Source, mutate ...func(*model.Config)) *Pipeline {
	cfg := model.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return New(src, cfg, zerolog.Nop()).WithClock(func() time.Time { return testNow })
}

func TestProduceAnalysis_Report(t *testing.T) {
	src := youngPage()
	p := newTestPipeline(src)

	report, err := p.ProduceAnalysis(context.Background(), "Example_page")
	require.NoError(t, err)

	assert.Equal(t, "Example page", report.Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Example_page", report.SourceURL)
	assert.Equal(t, testNow, report.FetchedAt)

	assert.Equal(t, 30, report.Analysis.Score)
	assert.Equal(t, model.RiskHigh, report.Analysis.Risk)
	assert.Equal(t, "High risk", report.RiskLabel)
	assert.Equal(t, "Why: very recent page with little history", report.Why)
	assert.Contains(t, report.Analysis.Summary, "12 revisions")
	assert.Contains(t, report.Analysis.Summary, "25000+ contributors")

	assert.Equal(t, model.QualityFeatured, report.Quality)
	assert.Equal(t, "featured article", report.QualityLabel)
	assert.Equal(t, 812, report.WordCount)
	assert.Len(t, report.Categories, 2)

	require.Len(t, report.RecentContributors, 2)
	assert.Equal(t, "U0", report.RecentContributors[0].User)
	assert.Equal(t, "https://en.wikipedia.org/w/index.php?diff=900&oldid=899", report.RecentContributors[0].DiffURL)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Special:Contributions/U0", report.RecentContributors[0].ProfileURL)
	assert.Equal(t, "(unknown user)", report.RecentContributors[1].User)
	assert.Equal(t, "https://en.wikipedia.org/w/index.php?oldid=899", report.RecentContributors[1].DiffURL)

	for _, title := range src.titles {
		assert.Equal(t, "Example page", title)
	}
}

func TestProduceAnalysis_ProfilesRequestedForEditors(t *testing.T) {
	src := youngPage()
	src.revisions = append(src.revisions,
		model.Revision{User: "U0", Timestamp: daysAgo(1)},
		model.Revision{User: "  ", Timestamp: daysAgo(1)},
	)

	_, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "Example")
	require.NoError(t, err)

	assert.Equal(t, 1, src.profileCalls)
	assert.Len(t, src.profileNames, 12)
	assert.Contains(t, src.profileNames, "U0")
	assert.Contains(t, src.profileNames, "U11")
	assert.NotContains(t, src.profileNames, "")
}

func TestProduceAnalysis_NoRevisions(t *testing.T) {
	src := youngPage()
	src.revisions = nil

	report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "Empty")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRevisions)
	assert.Nil(t, report)
	assert.Zero(t, src.profileCalls)
}

func TestProduceAnalysis_FetchFailureAborts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeSource)
		want   error
	}{
		{
			name:   "missing page",
			mutate: func(f *fakeSource) { f.revisionsErr = mediawiki.ErrPageMissing },
			want:   mediawiki.ErrPageMissing,
		},
		{
			name:   "categories exhausted",
			mutate: func(f *fakeSource) { f.categoriesErr = mediawiki.ErrRetriesExhausted },
			want:   mediawiki.ErrRetriesExhausted,
		},
		{
			name:   "profiles failed",
			mutate: func(f *fakeSource) { f.profilesErr = errors.New("users down") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := youngPage()
			tt.mutate(src)

			report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "Example")
			require.Error(t, err)
			assert.Nil(t, report)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestProduceAnalysis_CountsDegrade(t *testing.T) {
	src := youngPage()
	src.totalEdits = model.CountInfo{}
	src.totalEditors = model.CountInfo{}

	report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "Example")
	require.NoError(t, err)

	assert.False(t, report.TotalEdits.Known())
	assert.False(t, report.TotalEditors.Known())
	assert.Contains(t, report.Analysis.Summary, "12 revisions")
	assert.Contains(t, report.Analysis.Summary, "12 contributors")
}

func TestProduceAnalysis_WordCount(t *testing.T) {
	t.Run("failure ignored", func(t *testing.T) {
		src := youngPage()
		src.wordsErr = errors.New("parse failed")

		report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "Example")
		require.NoError(t, err)
		assert.Equal(t, 0, report.WordCount)
	})

	t.Run("disabled", func(t *testing.T) {
		src := youngPage()
		p := newTestPipeline(src, func(c *model.Config) { c.Wiki.WordCount = false })

		report, err := p.ProduceAnalysis(context.Background(), "Example")
		require.NoError(t, err)
		assert.Equal(t, 0, report.WordCount)
		assert.Zero(t, src.wordCountCalls)
	})
}

func TestProduceAnalysis_EmptyTitle(t *testing.T) {
	_, err := newTestPipeline(youngPage()).ProduceAnalysis(context.Background(), "  _ ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestWikiOrigin(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://fr.wikipedia.org/wiki/Tour_Eiffel", "https://fr.wikipedia.org"},
		{" HTTP://EN.Wikipedia.org/wiki/Paris ", "http://en.wikipedia.org"},
		{"Tour Eiffel", ""},
		{"Talk:Main_Page", ""},
		{"mailto:someone@example.org", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, WikiOrigin(tt.input))
		})
	}
}

func TestProduceAnalysis_ArticleURLOnSourceWiki(t *testing.T) {
	src := youngPage()

	report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "https://EN.wikipedia.org/wiki/Tour_Eiffel")
	require.NoError(t, err)
	assert.Equal(t, "Tour Eiffel", report.Title)
	assert.Contains(t, src.titles, "Tour Eiffel")
}

func TestProduceAnalysis_ArticleURLOnOtherWiki(t *testing.T) {
	src := youngPage()

	report, err := newTestPipeline(src).ProduceAnalysis(context.Background(), "https://fr.wikipedia.org/wiki/Tour_Eiffel")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForeignWiki)
	assert.Contains(t, err.Error(), "https://fr.wikipedia.org")
	assert.Nil(t, report)
	assert.Empty(t, src.titles)
	assert.Zero(t, src.profileCalls)
}

func TestProduceAnalysis_FrenchLabels(t *testing.T) {
	p := newTestPipeline(youngPage(), func(c *model.Config) { c.Output.Language = "fr" })

	report, err := p.ProduceAnalysis(context.Background(), "Exemple")
	require.NoError(t, err)
	assert.Equal(t, "Risque élevé", report.RiskLabel)
	assert.Equal(t, "article de qualité", report.QualityLabel)
	assert.Equal(t, "(utilisateur inconnu)", report.RecentContributors[1].User)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Go (programming language)", "Go (programming language)"},
		{"Go_(programming_language)", "Go (programming language)"},
		{"  Paris  ", "Paris"},
		{"https://en.wikipedia.org/wiki/AC%2FDC", "AC/DC"},
		{"https://fr.wikipedia.org/wiki/Tour_Eiffel", "Tour Eiffel"},
		{"https://en.wikipedia.org/wiki/Caf%C3%A9", "Café"},
		{"https://en.wikipedia.org/w/index.php?title=Tour_Eiffel&oldid=1", "Tour Eiffel"},
		{"Caf%C3%A9", "Caf%C3%A9"},
		{"100%", "100%"},
		{"100%25", "100%25"},
		{"Talk:Main_Page", "Talk:Main Page"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}
