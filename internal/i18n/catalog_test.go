package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestCatalog_English(t *testing.T) {
	c := New("en")

	assert.Equal(t, "Low risk", c.Translate("riskLow"))
	assert.Equal(t, "Why: a ; b", c.Translate("whyPrefix", "a ; b"))
	assert.Equal(t, "12% reverts", c.Translate("summaryReverts", "12"))
	assert.Equal(t, "30000+ revisions", c.Translate("summaryRevisions", "30000+"))
}

func TestCatalog_French(t *testing.T) {
	c := New("fr")

	assert.Equal(t, language.French, c.Language())
	assert.Equal(t, "Risque élevé", c.Translate("riskHigh"))
	assert.Equal(t, "12 % d'annulations", c.Translate("summaryReverts", "12"))
}

func TestCatalog_RegionalVariantMatchesBase(t *testing.T) {
	c := New("fr-CA")
	assert.Equal(t, "Risque faible", c.Translate("riskLow"))
}

func TestCatalog_FallbackToEnglish(t *testing.T) {
	for _, lang := range []string{"de", "", "not a tag!"} {
		c := New(lang)
		assert.Equal(t, "Medium risk", c.Translate("riskMedium"), "lang=%q", lang)
	}
}

func TestCatalog_UnknownKey(t *testing.T) {
	c := New("en")
	assert.Equal(t, "noSuchKey", c.Translate("noSuchKey", "x"))
}

func TestCatalog_EveryKeyTranslated(t *testing.T) {
	en, fr := New("en"), New("fr")
	for key := range messages {
		assert.NotEmpty(t, en.Translate(key, "1"), key)
		assert.NotEmpty(t, fr.Translate(key, "1"), key)
	}
}
