package mediawiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ppiankov/wikitrust/internal/cache"
)

// CollectCategories returns every category title of the page, following
// clcontinue until the API reports no further batch
func (c *Client) CollectCategories(ctx context.Context, title string) ([]string, error) {
	key := cache.Key("categories", title)
	var categories []string
	if c.cached("categories", key, &categories) {
		return categories, nil
	}

	categories = []string{}
	var cont string
	for {
		params := url.Values{
			"action":  {"query"},
			"prop":    {"categories"},
			"titles":  {title},
			"cllimit": {"max"},
		}
		if cont != "" {
			params.Set("clcontinue", cont)
		}

		var resp QueryResponse
		if err := c.call(ctx, "categories", params, &resp); err != nil {
			return nil, fmt.Errorf("query categories of %q: %w", title, err)
		}

		page, ok := resp.page()
		if !ok || page.Missing || page.Invalid {
			return nil, fmt.Errorf("categories of %q: %w", title, ErrPageMissing)
		}
		for _, cat := range page.Categories {
			categories = append(categories, cat.Title)
		}

		cont = resp.Continue.ClContinue
		if cont == "" {
			break
		}
	}

	c.store(key, categories)
	return categories, nil
}
