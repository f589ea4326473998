package mediawiki

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ppiankov/wikitrust/internal/cache"
	"github.com/ppiankov/wikitrust/internal/model"
)

// Caps of the REST history count endpoints
const (
	EditCountCap   = 30000
	EditorCountCap = 25000
)

type countResponse struct {
	Count *int `json:"count"`
	Limit bool `json:"limit"` // Set when the count hit the endpoint cap
}

// Count queries /history/counts/{kind}. It never fails: any error degrades
// to an unknown count.
func (c *Client) Count(ctx context.Context, title, kind string, countCap int) model.CountInfo {
	countURL := c.baseURL + "/w/rest.php/v1/page/" +
		url.PathEscape(strings.ReplaceAll(title, " ", "_")) +
		"/history/counts/" + kind

	key := cache.Key("counts", countURL)
	var info model.CountInfo
	if c.cached("counts", key, &info) {
		return info
	}

	endpoint := "counts:" + kind
	err := c.withRetry(ctx, endpoint, func(ctx context.Context) *APIError {
		status, body, err := c.get(ctx, countURL)
		if err != nil {
			return &APIError{Status: status, Err: err}
		}
		if status < 200 || status >= 300 {
			return &APIError{Status: status}
		}

		var resp countResponse
		if err := json.Unmarshal(body, &resp); err != nil || resp.Count == nil {
			return &APIError{Status: status, Code: "nocount"}
		}
		count := *resp.Count
		info = model.CountInfo{Count: &count, Capped: resp.Limit || count >= countCap}
		return nil
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("title", title).Str("kind", kind).Msg("Count unavailable")
		return model.CountInfo{}
	}

	c.store(key, info)
	return info
}

// TotalEditCount returns the number of edits of the page
func (c *Client) TotalEditCount(ctx context.Context, title string) model.CountInfo {
	return c.Count(ctx, title, "edits", EditCountCap)
}

// TotalEditorCount returns the number of distinct editors of the page
func (c *Client) TotalEditorCount(ctx context.Context, title string) model.CountInfo {
	return c.Count(ctx, title, "editors", EditorCountCap)
}
