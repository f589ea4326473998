package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/wikitrust/internal/cache"
	"github.com/ppiankov/wikitrust/internal/i18n"
	"github.com/ppiankov/wikitrust/internal/mediawiki"
	"github.com/ppiankov/wikitrust/internal/metrics"
	"github.com/ppiankov/wikitrust/internal/model"
	"github.com/ppiankov/wikitrust/internal/score"
	"github.com/ppiankov/wikitrust/internal/trust"
	"github.com/ppiankov/wikitrust/internal/worker"
)

var (
	// ErrNoRevisions means the page exists but has nothing to score
	ErrNoRevisions = errors.New("no revisions to score")

	// ErrEmptyTitle means no page title was given
	ErrEmptyTitle = errors.New("empty page title")

	// ErrForeignWiki means an article URL points at another wiki than the source
	ErrForeignWiki = errors.New("article belongs to another wiki")
)

// Source is the data the pipeline needs from the wiki
type Source interface {
	BaseURL() string
	RevisionMeta(ctx context.Context, title string, max int) ([]model.Revision, error)
	FirstRevision(ctx context.Context, title string) (*model.Revision, error)
	LatestRevisions(ctx context.Context, title string, count int) ([]model.Revision, error)
	TotalEditCount(ctx context.Context, title string) model.CountInfo
	TotalEditorCount(ctx context.Context, title string) model.CountInfo
	CollectCategories(ctx context.Context, title string) ([]string, error)
	ResolveProfiles(ctx context.Context, usernames []string) (map[string]model.UserProfile, error)
	ArticleWordCount(ctx context.Context, title string) (int, error)
}

// Pipeline orchestrates one page analysis
type Pipeline struct {
	source     Source
	analyzer   *score.Analyzer
	translator i18n.Translator
	renderer   *Renderer
	config     *model.Config
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline talking to the configured wiki
func NewPipeline(cfg *model.Config, logger zerolog.Logger) *Pipeline {
	opts := mediawiki.Options{
		BaseURL:      cfg.Wiki.BaseURL,
		UserAgent:    cfg.Wiki.UserAgent,
		Timeout:      cfg.Wiki.Timeout,
		CacheTTL:     cfg.Cache.TTL,
		Limiter:      worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		Multiplier:   cfg.Retry.Multiplier,
		HTTPProxy:    cfg.Wiki.HTTPProxy,
		HTTPSProxy:   cfg.Wiki.HTTPSProxy,
		Logger:       logger,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	return New(mediawiki.NewClient(opts), cfg, logger)
}

// New creates a pipeline over an arbitrary source
func New(source Source, cfg *model.Config, logger zerolog.Logger) *Pipeline {
	translator := i18n.New(cfg.Output.Language)
	return &Pipeline{
		source:     source,
		analyzer:   score.NewAnalyzer(trust.NewClassifier(&cfg.Trust), translator),
		translator: translator,
		renderer:   NewRenderer(cfg.Output.IncludeFooter, translator),
		config:     cfg,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		now:        time.Now,
	}
}

// WithClock replaces the wall clock of the pipeline and its analyzer
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.analyzer.WithClock(now)
	return p
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// NormalizeTitle turns a title or article URL into the API form: underscores
// become spaces and a /wiki/ URL is reduced to its decoded title. Plain titles
// are taken literally.
func NormalizeTitle(input string) string {
	title := strings.TrimSpace(input)
	if parsed := articleURL(title); parsed != nil {
		if rest, ok := strings.CutPrefix(parsed.Path, "/wiki/"); ok {
			title = rest
		} else if q := parsed.Query().Get("title"); q != "" {
			title = q
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
}

// WikiOrigin returns the scheme://host of an article URL, or "" for a plain title
func WikiOrigin(input string) string {
	parsed := articleURL(strings.TrimSpace(input))
	if parsed == nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
}

// articleURL parses input as an absolute http(s) URL. "Talk:Foo" is a title.
func articleURL(input string) *url.URL {
	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		return nil
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed
	}
	return nil
}

// checkOrigin rejects an article URL that the source does not serve
func checkOrigin(input, baseURL string) error {
	parsed := articleURL(strings.TrimSpace(input))
	if parsed == nil {
		return nil
	}
	if base, err := url.Parse(baseURL); err == nil && strings.EqualFold(base.Host, parsed.Host) {
		return nil
	}
	return fmt.Errorf("%s is not served by %s: %w", WikiOrigin(input), baseURL, ErrForeignWiki)
}

// fetched holds everything gathered for one page
type fetched struct {
	revisions    []model.Revision
	first        *model.Revision
	latest       []model.Revision
	totalEdits   model.CountInfo
	totalEditors model.CountInfo
	categories   []string
	profiles     map[string]model.UserProfile
	wordCount    int
}

// ProduceAnalysis fetches every input of a page concurrently and scores it.
// Any definitive fetch failure aborts the whole analysis.
func (p *Pipeline) ProduceAnalysis(ctx context.Context, title string) (report *model.Report, err error) {
	if err := checkOrigin(title, p.source.BaseURL()); err != nil {
		return nil, err
	}
	title = NormalizeTitle(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	start := time.Now()
	logger := p.logger.With().
		Str("analysis_id", uuid.NewString()).
		Str("title", title).
		Logger()

	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.AnalysisFailuresTotal.WithLabelValues().Inc()
			logger.Warn().Err(err).Msg("Analysis unavailable")
			return
		}
		metrics.AnalysesTotal.WithLabelValues(string(report.Analysis.Risk)).Inc()
		logger.Info().
			Int("score", report.Analysis.Score).
			Str("risk", string(report.Analysis.Risk)).
			Dur("elapsed", time.Since(start)).
			Msg("Analysis complete")
	}()

	data, err := p.fetch(ctx, title, logger)
	if err != nil {
		return nil, err
	}
	if len(data.revisions) == 0 {
		return nil, fmt.Errorf("%s: %w", title, ErrNoRevisions)
	}

	result := p.analyzer.Analyze(score.Input{
		Revisions:     data.revisions,
		FirstRevision: data.first,
		TotalEdits:    data.totalEdits,
		TotalEditors:  data.totalEditors,
		Profiles:      data.profiles,
	})

	return p.buildReport(title, data, result), nil
}

func (p *Pipeline) fetch(ctx context.Context, title string, logger zerolog.Logger) (*fetched, error) {
	data := &fetched{}
	g, gctx := errgroup.WithContext(ctx)

	// Profiles depend on the revision list, so they resolve in the same task
	g.Go(func() error {
		revisions, err := p.source.RevisionMeta(gctx, title, p.config.Wiki.MaxRevisions)
		if err != nil {
			return fmt.Errorf("revision history: %w", err)
		}
		data.revisions = revisions
		if len(revisions) == 0 {
			return nil
		}

		profiles, err := p.source.ResolveProfiles(gctx, editorNames(revisions))
		if err != nil {
			return fmt.Errorf("user profiles: %w", err)
		}
		data.profiles = profiles
		return nil
	})

	g.Go(func() error {
		first, err := p.source.FirstRevision(gctx, title)
		if err != nil {
			return fmt.Errorf("first revision: %w", err)
		}
		data.first = first
		return nil
	})

	g.Go(func() error {
		latest, err := p.source.LatestRevisions(gctx, title, p.config.Wiki.LatestRevisions)
		if err != nil {
			return fmt.Errorf("latest revisions: %w", err)
		}
		data.latest = latest
		return nil
	})

	g.Go(func() error {
		data.totalEdits = p.source.TotalEditCount(gctx, title)
		return nil
	})

	g.Go(func() error {
		data.totalEditors = p.source.TotalEditorCount(gctx, title)
		return nil
	})

	g.Go(func() error {
		categories, err := p.source.CollectCategories(gctx, title)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		data.categories = categories
		return nil
	})

	if p.config.Wiki.WordCount {
		g.Go(func() error {
			words, err := p.source.ArticleWordCount(gctx, title)
			if err != nil {
				logger.Debug().Err(err).Msg("Word count unavailable")
				return nil
			}
			data.wordCount = words
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Pipeline) buildReport(title string, data *fetched, result model.AnalysisResult) *model.Report {
	base := p.source.BaseURL()
	quality := DetectQuality(data.categories)

	report := &model.Report{
		Title:              title,
		SourceURL:          ArticleURL(base, title),
		FetchedAt:          p.now().UTC(),
		Analysis:           result,
		RiskLabel:          p.translator.Translate(riskKeys[result.Risk]),
		Quality:            quality,
		QualityLabel:       p.translator.Translate(qualityKeys[quality]),
		WordCount:          data.wordCount,
		TotalEdits:         data.totalEdits,
		TotalEditors:       data.totalEditors,
		Categories:         data.categories,
		RecentContributors: p.recentContributors(base, title, data.latest),
	}
	if result.WhyReasons != "" {
		report.Why = p.translator.Translate("whyPrefix", result.WhyReasons)
	}
	return report
}

func (p *Pipeline) recentContributors(base, title string, latest []model.Revision) []model.RecentContributor {
	contributors := make([]model.RecentContributor, 0, len(latest))
	for _, rev := range latest {
		user := strings.TrimSpace(rev.User)
		if user == "" {
			user = p.translator.Translate("unknownUser")
		}
		contributors = append(contributors, model.RecentContributor{
			User:       user,
			Timestamp:  rev.Timestamp,
			ProfileURL: ProfileURL(base, user),
			DiffURL:    DiffURL(base, title, rev),
		})
	}
	return contributors
}

// editorNames lists the distinct non-empty editor names of revisions
func editorNames(revisions []model.Revision) []string {
	seen := make(map[string]bool, len(revisions))
	names := make([]string, 0, len(revisions))
	for _, rev := range revisions {
		user := strings.TrimSpace(rev.User)
		if user == "" || seen[user] {
			continue
		}
		seen[user] = true
		names = append(names, user)
	}
	return names
}

var riskKeys = map[model.RiskTier]string{
	model.RiskLow:    "riskLow",
	model.RiskMedium: "riskMedium",
	model.RiskHigh:   "riskHigh",
}

var qualityKeys = map[model.QualityLevel]string{
	model.QualityFeatured: "qualityFeatured",
	model.QualityGood:     "qualityGood",
	model.QualityNone:     "qualityNone",
}
