package score

import "strings"

// KeywordCategory is a bit set of the categories an edit summary matches
type KeywordCategory uint8

const (
	CategoryRevert KeywordCategory = 1 << iota
	CategoryDispute
)

// Has reports whether c includes category
func (c KeywordCategory) Has(category KeywordCategory) bool {
	return c&category != 0
}

// keywordPolicy maps each summary keyword (English and French) to the
// categories it signals. Matching is a case-insensitive substring test.
var keywordPolicy = []struct {
	keyword    string
	categories KeywordCategory
}{
	{"revert", CategoryRevert | CategoryDispute},
	{"undid", CategoryRevert | CategoryDispute},
	{"annulation", CategoryRevert | CategoryDispute},
	{"rollback", CategoryRevert},
	{"rv", CategoryRevert},
	{"pov", CategoryDispute},
	{"neutral", CategoryDispute},
	{"bias", CategoryDispute},
	{"biais", CategoryDispute},
	{"propaganda", CategoryDispute},
	{"vandalism", CategoryDispute}, // also matches "vandalisme"
	{"controvers", CategoryDispute},
}

// Categorize returns every category whose keywords appear in comment
func Categorize(comment string) KeywordCategory {
	if comment == "" {
		return 0
	}
	lower := strings.ToLower(comment)

	var result KeywordCategory
	for _, entry := range keywordPolicy {
		if strings.Contains(lower, entry.keyword) {
			result |= entry.categories
		}
	}
	return result
}
