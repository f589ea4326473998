package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ppiankov/wikitrust/internal/cache"
	"github.com/ppiankov/wikitrust/internal/model"
)

// apiRevisionLimit is the largest rvlimit honoured for metadata-only queries
const apiRevisionLimit = 500

// RevisionQuery selects the revision properties and the walk direction
type RevisionQuery struct {
	Props     string // rvprop, pipe separated
	Direction string // rvdir: "older" (newest first, the API default) or "newer"
}

var (
	// MetaQuery fetches what the analyzer needs, newest first
	MetaQuery = RevisionQuery{Props: "timestamp|user|comment|size|tags|userid"}

	// FirstQuery walks from the page creation forward
	FirstQuery = RevisionQuery{Props: "timestamp|user|ids", Direction: "newer"}

	// LatestQuery walks from the newest revision backward
	LatestQuery = RevisionQuery{Props: "timestamp|user|ids", Direction: "older"}
)

// QueryResponse is the subset of an action=query payload the client reads
type QueryResponse struct {
	Continue struct {
		RvContinue string `json:"rvcontinue"`
		ClContinue string `json:"clcontinue"`
	} `json:"continue"`
	Query struct {
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Pages []Page    `json:"pages"`
		Users []apiUser `json:"users"`
	} `json:"query"`
}

// Page is one entry of query.pages
type Page struct {
	PageID     int64            `json:"pageid"`
	Title      string           `json:"title"`
	Missing    bool             `json:"missing"`
	Invalid    bool             `json:"invalid"`
	Revisions  []model.Revision `json:"revisions"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
}

func (r *QueryResponse) page() (Page, bool) {
	if len(r.Query.Pages) == 0 {
		return Page{}, false
	}
	return r.Query.Pages[0], true
}

// CollectRevisions follows rvcontinue until max revisions are collected or
// the history ends. The result never holds more than max entries.
func (c *Client) CollectRevisions(ctx context.Context, title string, max int, q RevisionQuery) ([]model.Revision, error) {
	if max <= 0 {
		return []model.Revision{}, nil
	}

	key := cache.Key("revisions", title, strconv.Itoa(max), q.Props, q.Direction)
	var collected []model.Revision
	if c.cached("revisions", key, &collected) {
		return collected, nil
	}

	limit := "max"
	if max < apiRevisionLimit {
		limit = strconv.Itoa(max)
	}

	collected = make([]model.Revision, 0, max)
	var cont string
	for len(collected) < max {
		params := url.Values{
			"action":  {"query"},
			"prop":    {"revisions"},
			"titles":  {title},
			"rvprop":  {q.Props},
			"rvlimit": {limit},
		}
		if q.Direction != "" {
			params.Set("rvdir", q.Direction)
		}
		if cont != "" {
			params.Set("rvcontinue", cont)
		}

		var resp QueryResponse
		if err := c.call(ctx, "revisions", params, &resp); err != nil {
			return nil, fmt.Errorf("query revisions of %q: %w", title, err)
		}

		page, ok := resp.page()
		if !ok || page.Missing || page.Invalid {
			return nil, fmt.Errorf("revisions of %q: %w", title, ErrPageMissing)
		}

		collected = append(collected, page.Revisions...)
		cont = resp.Continue.RvContinue
		if cont == "" || len(page.Revisions) == 0 {
			break
		}
	}

	if len(collected) > max {
		collected = collected[:max]
	}

	c.store(key, collected)
	return collected, nil
}

// RevisionMeta fetches up to max revisions with the properties the analyzer
// scores on
func (c *Client) RevisionMeta(ctx context.Context, title string, max int) ([]model.Revision, error) {
	return c.CollectRevisions(ctx, title, max, MetaQuery)
}

// FirstRevision fetches the page creation revision. It returns nil when the
// page has no revisions.
func (c *Client) FirstRevision(ctx context.Context, title string) (*model.Revision, error) {
	revisions, err := c.CollectRevisions(ctx, title, 1, FirstQuery)
	if err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		return nil, nil
	}
	return &revisions[0], nil
}

// LatestRevisions fetches the count most recent revisions
func (c *Client) LatestRevisions(ctx context.Context, title string, count int) ([]model.Revision, error) {
	return c.CollectRevisions(ctx, title, count, LatestQuery)
}
