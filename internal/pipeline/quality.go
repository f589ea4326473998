package pipeline

import (
	"strings"

	"github.com/ppiankov/wikitrust/internal/model"
)

// Category fragments of the community quality badges, English and French
var (
	featuredMarkers = []string{"featured article", "article de qualité", "article de qualite", "article_de_qualite"}
	goodMarkers     = []string{"good article", "bon article", "bon_article"}
)

// DetectQuality returns the strongest quality badge among categories
func DetectQuality(categories []string) model.QualityLevel {
	lowered := make([]string, len(categories))
	for i, c := range categories {
		lowered[i] = strings.ToLower(c)
	}

	if containsAny(lowered, featuredMarkers) {
		return model.QualityFeatured
	}
	if containsAny(lowered, goodMarkers) {
		return model.QualityGood
	}
	return model.QualityNone
}

func containsAny(values, markers []string) bool {
	for _, v := range values {
		for _, m := range markers {
			if strings.Contains(v, m) {
				return true
			}
		}
	}
	return false
}
