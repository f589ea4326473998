package score

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/wikitrust/internal/i18n"
	"github.com/ppiankov/wikitrust/internal/model"
	"github.com/ppiankov/wikitrust/internal/trust"
)

const (
	baseScore      = 80
	topAuthorLimit = 5
	charsPerWord   = 5.5
	newPageDays    = 120
	maxWhyReasons  = 2

	day = 24 * time.Hour
)

var reasonKeys = map[model.ReasonCode]string{
	model.ReasonVeryRecentLowHistory:   "reasonVeryRecentLowHistory",
	model.ReasonRecentLimitedHistory:   "reasonRecentLimitedHistory",
	model.ReasonYoungPartialHistory:    "reasonYoungPartialHistory",
	model.ReasonHighActivityWindow:     "reasonHighActivity3Months",
	model.ReasonSuddenAcceleration:     "reasonSuddenAcceleration",
	model.ReasonEditWarInWindow:        "reasonEditWar3Months",
	model.ReasonTopAuthorsRecognized:   "reasonTopAuthorsRecognized",
	model.ReasonTopAuthorsUnrecognized: "reasonTopAuthorsUnrecognized",
	model.ReasonManyNewEditorsInWindow: "reasonManyNewEditors",
}

var levelKeys = map[model.ContributorLevel]string{
	model.LevelAnonymous:    "levelAnonymous",
	model.LevelNew:          "levelNew",
	model.LevelIntermediate: "levelIntermediate",
	model.LevelEstablished:  "levelEstablished",
	model.LevelRecognized:   "levelRecognized",
	model.LevelUnknown:      "levelUnknown",
}

// Input is everything the analyzer needs for one page
type Input struct {
	Revisions     []model.Revision // Newest first, at most max revisions
	FirstRevision *model.Revision  // Page creation, nil when unknown
	TotalEdits    model.CountInfo
	TotalEditors  model.CountInfo
	Profiles      map[string]model.UserProfile // Keyed by model.ProfileKey
}

// Analyzer combines revision heuristics into a bounded trust score
type Analyzer struct {
	classifier *trust.Classifier
	translator i18n.Translator
	now        func() time.Time
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(classifier *trust.Classifier, translator i18n.Translator) *Analyzer {
	if classifier == nil {
		classifier = trust.NewClassifier(nil)
	}
	if translator == nil {
		translator = i18n.New("en")
	}
	return &Analyzer{
		classifier: classifier,
		translator: translator,
		now:        time.Now,
	}
}

// WithClock replaces the wall clock
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// tally holds the counters of the per-revision scan
type tally struct {
	total            int
	editorCounts     map[string]int
	editorIDs        map[string]*int64
	anonymous        int
	reverts          int
	disputes         int
	recent           int
	window           int
	windowReverts    int
	windowNewcomers  int
	windowRecognized int
	previousWindow   int
	addedChars       map[string]int
	addedOrder       []string
	totalAddedChars  int
	topEditorEdits   int
	recognizedShare  float64
	topAuthorsRanked int
	pageAgeDays      *int
	newPage          bool
}

// Analyze scores a page. It never fails; missing timestamps, sizes and
// comments only neutralize the signals that depend on them. Callers must not
// pass an empty revision list.
func (a *Analyzer) Analyze(in Input) model.AnalysisResult {
	now := a.now()
	t := a.scan(in, now)
	a.attributeVolume(in.Revisions, t)
	topAuthors := a.rankAuthors(in.Profiles, t, now)

	if in.FirstRevision != nil {
		if created, ok := in.FirstRevision.Time(); ok {
			age := int(math.Floor(now.Sub(created).Hours() / 24))
			t.pageAgeDays = &age
			t.newPage = age <= newPageDays
		}
	}

	score, signals, reasons := a.applyRules(t)

	score = clamp(score)
	result := model.AnalysisResult{
		Score:             score,
		Risk:              RiskFor(score),
		BaseRevisionCount: t.total,
		Reasons:           reasons,
		TopAuthors:        topAuthors,
		Signals:           signals,
		PageAgeDays:       t.pageAgeDays,
		NewPage:           t.newPage,
		Edits90Days:       t.window,
		UniqueEditors:     len(t.editorCounts),
	}
	result.Summary = a.summary(in, t)
	result.WhyReasons = a.whyReasons(reasons)
	return result
}

// RiskFor maps a score to its risk tier
func RiskFor(score int) model.RiskTier {
	switch {
	case score >= 70:
		return model.RiskLow
	case score >= 50:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

func (a *Analyzer) userName(rev model.Revision) string {
	user := strings.TrimSpace(rev.User)
	if user == "" {
		return a.translator.Translate("maskedUser")
	}
	return user
}

func (a *Analyzer) scan(in Input, now time.Time) *tally {
	t := &tally{
		total:        len(in.Revisions),
		editorCounts: make(map[string]int),
		editorIDs:    make(map[string]*int64),
		addedChars:   make(map[string]int),
	}

	for _, rev := range in.Revisions {
		user := a.userName(rev)
		if _, seen := t.editorCounts[user]; !seen {
			t.editorIDs[user] = rev.UserID
		}
		t.editorCounts[user]++

		if trust.IsAnonymous(user, rev.UserID) {
			t.anonymous++
		}

		categories := Categorize(rev.Comment)
		isRevert := categories.Has(CategoryRevert)
		if isRevert {
			t.reverts++
		}
		if categories.Has(CategoryDispute) {
			t.disputes++
		}

		ts, ok := rev.Time()
		if !ok {
			continue
		}
		age := now.Sub(ts)
		if age <= 30*day {
			t.recent++
		}
		switch {
		case age <= 90*day:
			t.window++
			if isRevert {
				t.windowReverts++
			}
			level := a.classifier.Classify(user, rev.UserID, in.Profiles, now)
			if level.Recognized() {
				t.windowRecognized++
			}
			if level == model.LevelNew {
				t.windowNewcomers++
			}
		case age <= 180*day:
			t.previousWindow++
		}
	}

	t.topEditorEdits = 1
	for _, n := range t.editorCounts {
		if n > t.topEditorEdits {
			t.topEditorEdits = n
		}
	}
	return t
}

// attributeVolume credits each positive size delta to the later revision's
// author. Revisions without a parseable timestamp or a size are skipped.
func (a *Analyzer) attributeVolume(revisions []model.Revision, t *tally) {
	type timed struct {
		at  time.Time
		rev model.Revision
	}
	ordered := make([]timed, 0, len(revisions))
	for _, rev := range revisions {
		if ts, ok := rev.Time(); ok {
			ordered = append(ordered, timed{at: ts, rev: rev})
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].at.Before(ordered[j].at)
	})

	var previous *int
	for _, item := range ordered {
		if item.rev.Size == nil {
			continue
		}
		current := *item.rev.Size
		if previous != nil {
			if delta := current - *previous; delta > 0 {
				user := a.userName(item.rev)
				if _, seen := t.addedChars[user]; !seen {
					t.addedOrder = append(t.addedOrder, user)
				}
				t.addedChars[user] += delta
				t.totalAddedChars += delta
			}
		}
		previous = &current
	}
}

func (a *Analyzer) rankAuthors(profiles map[string]model.UserProfile, t *tally, now time.Time) []model.AuthorContribution {
	ranked := make([]string, len(t.addedOrder))
	copy(ranked, t.addedOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.addedChars[ranked[i]] > t.addedChars[ranked[j]]
	})
	if len(ranked) > topAuthorLimit {
		ranked = ranked[:topAuthorLimit]
	}

	authors := make([]model.AuthorContribution, 0, len(ranked))
	topVolume, recognizedVolume := 0, 0
	for _, user := range ranked {
		chars := t.addedChars[user]
		level := a.classifier.Classify(user, t.editorIDs[user], profiles, now)

		share := 0
		if t.totalAddedChars > 0 {
			share = int(math.Round(float64(chars) / float64(t.totalAddedChars) * 100))
		}
		authors = append(authors, model.AuthorContribution{
			User:       user,
			AddedWords: estimateWords(chars),
			SharePct:   share,
			Level:      level,
			LevelLabel: a.translator.Translate(levelKeys[level]),
			Recognized: level.Recognized(),
		})

		topVolume += chars
		if level.Recognized() {
			recognizedVolume += chars
		}
	}

	t.topAuthorsRanked = len(authors)
	t.recognizedShare = ratio(recognizedVolume, topVolume)
	return authors
}

// applyRules runs every scoring rule in order and returns the unclamped
// score with the signals and reasons that fired
func (a *Analyzer) applyRules(t *tally) (int, []model.Signal, []model.ReasonCode) {
	score := baseScore
	var signals []model.Signal
	var reasons []model.ReasonCode

	fire := func(signalType model.SignalType, severity model.SignalSeverity, delta int, description string, data map[string]interface{}) {
		score += delta
		signals = append(signals, model.Signal{
			Type:        signalType,
			Severity:    severity,
			Delta:       delta,
			Description: description,
			Data:        data,
		})
	}

	unique := len(t.editorCounts)
	topShare := ratio(t.topEditorEdits, t.total)
	anonRatio := ratio(t.anonymous, t.total)
	revertRatio := ratio(t.reverts, t.total)
	disputeRatio := ratio(t.disputes, t.total)
	recentRatio := ratio(t.recent, t.total)
	windowRatio := ratio(t.window, t.total)
	windowDenominator := max(1, t.window)
	windowRevertRatio := ratio(t.windowReverts, windowDenominator)
	windowNewcomerRatio := ratio(t.windowNewcomers, windowDenominator)
	windowRecognizedRatio := ratio(t.windowRecognized, windowDenominator)

	if unique >= 40 {
		fire(model.SignalEditorDiversity, model.SeverityInfo, 8,
			"At least 40 distinct editors", map[string]interface{}{"unique_editors": unique})
	}
	if unique >= 100 {
		fire(model.SignalEditorDiversity, model.SeverityInfo, 4,
			"At least 100 distinct editors", map[string]interface{}{"unique_editors": unique})
	}
	if topShare > 0.22 {
		fire(model.SignalEditorConcentration, model.SeverityWarning, -14,
			"One editor made more than 22% of the edits", map[string]interface{}{"top_editor_share": topShare})
	}
	if topShare > 0.35 {
		fire(model.SignalEditorConcentration, model.SeverityCritical, -8,
			"One editor made more than 35% of the edits", map[string]interface{}{"top_editor_share": topShare})
	}
	if anonRatio > 0.30 {
		fire(model.SignalAnonymousEdits, model.SeverityWarning, -8,
			"More than 30% of the edits are anonymous", map[string]interface{}{"anonymous_ratio": anonRatio})
	}
	if revertRatio > 0.18 {
		fire(model.SignalReverts, model.SeverityWarning, -14,
			"More than 18% of the edits are reverts", map[string]interface{}{"revert_ratio": revertRatio})
	}
	if revertRatio > 0.30 {
		fire(model.SignalReverts, model.SeverityCritical, -8,
			"More than 30% of the edits are reverts", map[string]interface{}{"revert_ratio": revertRatio})
	}
	if disputeRatio > 0.10 {
		fire(model.SignalDisputes, model.SeverityWarning, -8,
			"More than 10% of the edit summaries mention a dispute", map[string]interface{}{"dispute_ratio": disputeRatio})
	}
	if recentRatio > 0.55 {
		fire(model.SignalRecentChurn, model.SeverityWarning, -10,
			"Most edits happened in the last 30 days", map[string]interface{}{"recent_ratio": recentRatio})
	}
	if t.total >= 200 && unique >= 80 && topShare < 0.12 {
		fire(model.SignalBroadCollaboration, model.SeverityInfo, 8,
			"Broad editing with low concentration", map[string]interface{}{
				"total": t.total, "unique_editors": unique, "top_editor_share": topShare,
			})
	}
	if t.recognizedShare >= 0.55 {
		fire(model.SignalAuthorTrust, model.SeverityInfo, 10,
			"Recognized editors wrote most of the top content", map[string]interface{}{"recognized_share": t.recognizedShare})
	}
	if t.recognizedShare < 0.25 && t.topAuthorsRanked >= 3 {
		fire(model.SignalAuthorTrust, model.SeverityWarning, -14,
			"Few of the top authors are recognized editors", map[string]interface{}{
				"recognized_share": t.recognizedShare, "top_authors": t.topAuthorsRanked,
			})
	}
	if windowRecognizedRatio >= 0.45 && t.window >= 20 {
		fire(model.SignalWindowTrust, model.SeverityInfo, 6,
			"Recognized editors made most recent edits", map[string]interface{}{
				"window_recognized_ratio": windowRecognizedRatio, "window_edits": t.window,
			})
	}
	if windowNewcomerRatio >= 0.35 && t.window >= 20 {
		fire(model.SignalWindowTrust, model.SeverityWarning, -12,
			"Many recent edits come from new accounts", map[string]interface{}{
				"window_newcomer_ratio": windowNewcomerRatio, "window_edits": t.window,
			})
	}
	if windowNewcomerRatio >= 0.55 && t.window >= 35 {
		fire(model.SignalWindowTrust, model.SeverityCritical, -8,
			"Most recent edits come from new accounts", map[string]interface{}{
				"window_newcomer_ratio": windowNewcomerRatio, "window_edits": t.window,
			})
	}

	if t.newPage {
		age := *t.pageAgeDays
		ageData := map[string]interface{}{"page_age_days": age, "total": t.total}
		switch {
		case t.total < 20 && age <= 30:
			fire(model.SignalPageAge, model.SeverityCritical, -40, "Very recent page with little history", ageData)
			reasons = append(reasons, model.ReasonVeryRecentLowHistory)
		case t.total < 60 && age <= 90:
			fire(model.SignalPageAge, model.SeverityWarning, -28, "Recent page with limited history", ageData)
			reasons = append(reasons, model.ReasonRecentLimitedHistory)
		case t.total < 90:
			fire(model.SignalPageAge, model.SeverityWarning, -16, "Young page with partial history", ageData)
			reasons = append(reasons, model.ReasonYoungPartialHistory)
		}
	} else {
		if t.window >= 80 && windowRatio > 0.55 {
			fire(model.SignalWindowActivity, model.SeverityWarning, -24,
				"Activity surge in the last 90 days", map[string]interface{}{
					"window_edits": t.window, "window_ratio": windowRatio,
				})
			reasons = append(reasons, model.ReasonHighActivityWindow)
		}
		if t.window >= 45 && t.previousWindow > 0 && float64(t.window)/float64(t.previousWindow) >= 1.8 {
			fire(model.SignalAcceleration, model.SeverityWarning, -14,
				"Edits accelerated compared to the previous 90 days", map[string]interface{}{
					"window_edits": t.window, "previous_window_edits": t.previousWindow,
				})
			reasons = append(reasons, model.ReasonSuddenAcceleration)
		}
		if t.window >= 25 && windowRevertRatio >= 0.22 {
			fire(model.SignalEditWar, model.SeverityCritical, -14,
				"Frequent reverts in the last 90 days", map[string]interface{}{
					"window_edits": t.window, "window_revert_ratio": windowRevertRatio,
				})
			reasons = append(reasons, model.ReasonEditWarInWindow)
		}
	}

	if t.recognizedShare >= 0.55 && t.topAuthorsRanked >= 2 {
		reasons = append(reasons, model.ReasonTopAuthorsRecognized)
	}
	if t.recognizedShare < 0.25 && t.topAuthorsRanked >= 3 {
		reasons = append(reasons, model.ReasonTopAuthorsUnrecognized)
	}
	if windowNewcomerRatio >= 0.35 && t.window >= 20 {
		reasons = append(reasons, model.ReasonManyNewEditorsInWindow)
	}

	return score, signals, reasons
}

func (a *Analyzer) summary(in Input, t *tally) string {
	parts := []string{
		a.translator.Translate("summaryRevisions", in.TotalEdits.Format(t.total)),
		a.translator.Translate("summaryContributors", in.TotalEditors.Format(len(t.editorCounts))),
		a.translator.Translate("summaryReverts", strconv.Itoa(int(math.Round(ratio(t.reverts, t.total)*100)))),
		a.translator.Translate("summaryEdits90Days", strconv.Itoa(t.window)),
	}
	if t.newPage {
		parts = append(parts, a.translator.Translate("summaryPageAgeDays", strconv.Itoa(*t.pageAgeDays)))
	}
	return strings.Join(parts, " | ")
}

func (a *Analyzer) whyReasons(reasons []model.ReasonCode) string {
	if len(reasons) > maxWhyReasons {
		reasons = reasons[:maxWhyReasons]
	}
	rendered := make([]string, 0, len(reasons))
	for _, r := range reasons {
		rendered = append(rendered, a.translator.Translate(reasonKeys[r]))
	}
	return strings.Join(rendered, " ; ")
}

func estimateWords(chars int) int {
	if chars <= 0 {
		return 0
	}
	return int(math.Round(float64(chars) / charsPerWord))
}

func ratio(value, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(value) / float64(total)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
