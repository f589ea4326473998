package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator renders a human-facing label from a semantic key and positional
// substitutions
type Translator interface {
	Translate(key string, subs ...string) string
}

// Supported lists the languages with a catalog
var Supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(Supported)

// messages maps each key to its English and French rendering
var messages = map[string][2]string{
	"riskLow":    {"Low risk", "Risque faible"},
	"riskMedium": {"Medium risk", "Risque moyen"},
	"riskHigh":   {"High risk", "Risque élevé"},

	"whyPrefix":           {"Why: %[1]s", "Pourquoi : %[1]s"},
	"summaryRevisions":    {"%[1]s revisions", "%[1]s révisions"},
	"summaryContributors": {"%[1]s contributors", "%[1]s contributeurs"},
	"summaryReverts":      {"%[1]s%% reverts", "%[1]s %% d'annulations"},
	"summaryEdits90Days":  {"%[1]s edits in 90 days", "%[1]s modifications en 90 jours"},
	"summaryPageAgeDays":  {"page created %[1]s days ago", "page créée il y a %[1]s jours"},

	"reasonVeryRecentLowHistory":   {"very recent page with little history", "page très récente avec peu d'historique"},
	"reasonRecentLimitedHistory":   {"recent page with limited history", "page récente avec un historique limité"},
	"reasonYoungPartialHistory":    {"young page with partial history", "page jeune avec un historique partiel"},
	"reasonHighActivity3Months":    {"unusually high activity in the last 3 months", "activité inhabituellement forte sur les 3 derniers mois"},
	"reasonSuddenAcceleration":     {"sudden acceleration of edits in the last 3 months", "accélération soudaine des modifications sur 3 mois"},
	"reasonEditWar3Months":         {"signs of an edit war in the last 3 months", "signes de guerre d'édition sur les 3 derniers mois"},
	"reasonTopAuthorsRecognized":   {"main authors are recognized contributors", "les principaux auteurs sont des contributeurs reconnus"},
	"reasonTopAuthorsUnrecognized": {"main authors are not recognized contributors", "les principaux auteurs ne sont pas des contributeurs reconnus"},
	"reasonManyNewEditors":         {"many new editors in the last 3 months", "beaucoup de nouveaux contributeurs sur les 3 derniers mois"},

	"levelAnonymous":    {"anonymous", "anonyme"},
	"levelNew":          {"new", "nouveau"},
	"levelIntermediate": {"intermediate", "intermédiaire"},
	"levelEstablished":  {"established", "confirmé"},
	"levelRecognized":   {"recognized", "reconnu"},
	"levelUnknown":      {"unknown", "inconnu"},

	"qualityFeatured": {"featured article", "article de qualité"},
	"qualityGood":     {"good article", "bon article"},
	"qualityNone":     {"no label", "aucun label"},

	"errorAnalysisUnavailable": {"Analysis unavailable", "Analyse indisponible"},
	"errorUnableScore":         {"Unable to score this page", "Impossible d'évaluer cette page"},
	"maskedUser":               {"(hidden user)", "(utilisateur masqué)"},
	"unknownUser":              {"(unknown user)", "(utilisateur inconnu)"},

	"labelConfidence":         {"Confidence: %[1]s/100", "Confiance : %[1]s/100"},
	"labelWords":              {"%[1]s words", "%[1]s mots"},
	"labelQuality":            {"Quality: %[1]s", "Qualité : %[1]s"},
	"labelTopContributors":    {"Top contributors:", "Principaux contributeurs :"},
	"labelRecentContributors": {"Recent contributors:", "Contributeurs récents :"},
	"noteBaseScore":           {"Score based on the last %[1]s revisions", "Score basé sur les %[1]s dernières révisions"},
	"wordsAddedUnit":          {"words added", "mots ajoutés"},
	"diffLinkText":            {"diff", "diff"},
	"noContributorData":       {"no contributor data", "aucune donnée de contributeur"},
}

var defaultCatalog = mustBuild()

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range messages {
		for i, tag := range Supported {
			if err := b.SetString(tag, key, msg[i]); err != nil {
				panic(fmt.Sprintf("i18n: message %q: %v", key, err))
			}
		}
	}
	return b
}

// Catalog translates keys for one language
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a catalog for lang, a BCP 47 tag. Unsupported or malformed tags
// fall back to English.
func New(lang string) *Catalog {
	desired, err := language.Parse(lang)
	if err != nil {
		desired = language.English
	}
	_, idx, conf := matcher.Match(desired)
	tag := language.English
	if conf != language.No {
		tag = Supported[idx]
	}
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(defaultCatalog)),
	}
}

// Language returns the resolved catalog language
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Translate renders key with subs. Unknown keys render as the key itself.
func (c *Catalog) Translate(key string, subs ...string) string {
	if _, ok := messages[key]; !ok {
		return key
	}
	args := make([]interface{}, len(subs))
	for i, s := range subs {
		args[i] = s
	}
	return c.printer.Sprintf(key, args...)
}
