package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/wikitrust/internal/cache"
)

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

// ArticleWordCount renders the page with action=parse and counts the words
// of its visible text
func (c *Client) ArticleWordCount(ctx context.Context, title string) (int, error) {
	key := cache.Key("wordcount", title)
	var count int
	if c.cached("wordcount", key, &count) {
		return count, nil
	}

	params := url.Values{
		"action":             {"parse"},
		"page":               {title},
		"prop":               {"text"},
		"disableeditsection": {"1"},
		"disabletoc":         {"1"},
	}

	var resp parseResponse
	if err := c.call(ctx, "parse", params, &resp); err != nil {
		return 0, fmt.Errorf("parse %q: %w", title, err)
	}

	count = CountWords(resp.Parse.Text)
	c.store(key, count)
	return count, nil
}

// CountWords counts whitespace-separated words in the text nodes of an HTML
// fragment, ignoring script and style contents
func CountWords(fragment string) int {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	words := 0
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return words
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				words += len(strings.Fields(string(tokenizer.Text())))
			}
		}
	}
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style"
}
