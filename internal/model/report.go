package model

import "time"

// Report represents the complete analysis of one wiki article
type Report struct {
	Title     string    `json:"title"`      // Normalized page title
	SourceURL string    `json:"source_url"` // Article URL on the wiki
	FetchedAt time.Time `json:"fetched_at"` // When the analysis ran

	Analysis  AnalysisResult `json:"analysis"`
	RiskLabel string         `json:"risk_label"`    // Localized risk tier
	Why       string         `json:"why,omitempty"` // Localized "why" line, empty when no reasons fired

	Quality      QualityLevel `json:"quality"`
	QualityLabel string       `json:"quality_label"`
	WordCount    int          `json:"word_count"`

	TotalEdits         CountInfo           `json:"total_edits"`
	TotalEditors       CountInfo           `json:"total_editors"`
	Categories         []string            `json:"categories,omitempty"`
	RecentContributors []RecentContributor `json:"recent_contributors"`
}

// AnalysisResult is the output of the revision analyzer. It is derived
// entirely from its inputs and never persisted.
type AnalysisResult struct {
	Score             int                  `json:"score"` // 0-100
	Risk              RiskTier             `json:"risk"`
	BaseRevisionCount int                  `json:"base_revision_count"` // Revisions the score is based on
	Summary           string               `json:"summary"`
	WhyReasons        string               `json:"why_reasons,omitempty"` // First two rendered reasons
	Reasons           []ReasonCode         `json:"reasons,omitempty"`     // Every reason, in emission order
	TopAuthors        []AuthorContribution `json:"top_authors"`
	Signals           []Signal             `json:"signals"` // Every scoring rule that fired
	PageAgeDays       *int                 `json:"page_age_days,omitempty"`
	NewPage           bool                 `json:"new_page"`
	Edits90Days       int                  `json:"edits_90_days"`
	UniqueEditors     int                  `json:"unique_editors"`
}

// AuthorContribution is one entry of the top-author ranking
type AuthorContribution struct {
	User       string           `json:"user"`
	AddedWords int              `json:"added_words"` // Estimated from added characters
	SharePct   int              `json:"share_pct"`   // Share of all added volume, rounded independently
	Level      ContributorLevel `json:"level"`
	LevelLabel string           `json:"level_label"`
	Recognized bool             `json:"recognized"`
}

// RecentContributor is one of the latest revisions with links for display
type RecentContributor struct {
	User       string `json:"user"`
	Timestamp  string `json:"timestamp,omitempty"`
	ProfileURL string `json:"profile_url"`
	DiffURL    string `json:"diff_url"`
}

// RiskTier is the coarse verdict derived from the score
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// ReasonCode identifies a "why" reason emitted by the analyzer
type ReasonCode string

const (
	ReasonVeryRecentLowHistory   ReasonCode = "very-recent-low-history"
	ReasonRecentLimitedHistory   ReasonCode = "recent-limited-history"
	ReasonYoungPartialHistory    ReasonCode = "young-partial-history"
	ReasonHighActivityWindow     ReasonCode = "high-activity-recent-window"
	ReasonSuddenAcceleration     ReasonCode = "sudden-acceleration"
	ReasonEditWarInWindow        ReasonCode = "edit-war-in-window"
	ReasonTopAuthorsRecognized   ReasonCode = "top-authors-recognized"
	ReasonTopAuthorsUnrecognized ReasonCode = "top-authors-unrecognized"
	ReasonManyNewEditorsInWindow ReasonCode = "many-new-editors-in-window"
)

// QualityLevel is the community quality badge detected from categories
type QualityLevel string

const (
	QualityFeatured QualityLevel = "featured"
	QualityGood     QualityLevel = "good"
	QualityNone     QualityLevel = "none"
)

// Signal represents a scoring rule that fired, with its inputs
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Delta       int                    `json:"delta"` // Score adjustment applied
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Rule inputs and thresholds
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalEditorDiversity     SignalType = "editor_diversity"     // Many distinct editors
	SignalEditorConcentration SignalType = "editor_concentration" // One editor dominates
	SignalAnonymousEdits      SignalType = "anonymous_edits"
	SignalReverts             SignalType = "reverts"
	SignalDisputes            SignalType = "disputes"
	SignalRecentChurn         SignalType = "recent_churn"        // Most edits in the last 30 days
	SignalBroadCollaboration  SignalType = "broad_collaboration" // Many editors, low concentration
	SignalAuthorTrust         SignalType = "author_trust"        // Recognized share of added volume
	SignalWindowTrust         SignalType = "window_trust"        // Recognized/new editors in the window
	SignalPageAge             SignalType = "page_age"            // Young page with little history
	SignalWindowActivity      SignalType = "window_activity"     // Surge inside the 90-day window
	SignalAcceleration        SignalType = "acceleration"        // Window vs previous window
	SignalEditWar             SignalType = "edit_war"            // Reverts inside the window
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
