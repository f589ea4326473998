package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/wikitrust/internal/cache"
	"github.com/ppiankov/wikitrust/internal/model"
	"github.com/ppiankov/wikitrust/internal/trust"
)

// UserBatchSize is the list=users limit for ordinary clients
const UserBatchSize = 50

type apiUser struct {
	UserID       int64    `json:"userid"`
	Name         string   `json:"name"`
	EditCount    int      `json:"editcount"`
	Registration string   `json:"registration"`
	Groups       []string `json:"groups"`
	Missing      bool     `json:"missing"`
	Invalid      bool     `json:"invalid"`
}

// ResolveProfiles looks up account metadata for usernames. The result is
// keyed by model.ProfileKey. Numeric and IP names are never looked up; names
// the API does not return are recorded as missing.
func (c *Client) ResolveProfiles(ctx context.Context, usernames []string) (map[string]model.UserProfile, error) {
	names := lookupNames(usernames)
	profiles := make(map[string]model.UserProfile, len(names))
	if len(names) == 0 {
		return profiles, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = model.ProfileKey(name)
	}
	key := cache.Key("users", strings.Join(keys, "|"))
	if c.cached("users", key, &profiles) {
		return profiles, nil
	}

	for start := 0; start < len(names); start += UserBatchSize {
		end := min(start+UserBatchSize, len(names))
		if err := c.resolveBatch(ctx, names[start:end], profiles); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().Int("users", len(names)).Msg("Resolved user profiles")
	c.store(key, profiles)
	return profiles, nil
}

func (c *Client) resolveBatch(ctx context.Context, batch []string, profiles map[string]model.UserProfile) error {
	params := url.Values{
		"action":  {"query"},
		"list":    {"users"},
		"ususers": {strings.Join(batch, "|")},
		"usprop":  {"editcount|registration|groups"},
	}

	var resp QueryResponse
	if err := c.call(ctx, "users", params, &resp); err != nil {
		return fmt.Errorf("query users: %w", err)
	}

	returned := make(map[string]model.UserProfile, len(resp.Query.Users))
	for _, u := range resp.Query.Users {
		returned[model.ProfileKey(u.Name)] = model.UserProfile{
			Name:         u.Name,
			EditCount:    u.EditCount,
			Registration: u.Registration,
			Groups:       u.Groups,
			Missing:      u.Missing || u.Invalid,
		}
	}

	// The API canonicalizes names (first letter, underscores)
	normalized := make(map[string]string, len(resp.Query.Normalized))
	for _, n := range resp.Query.Normalized {
		normalized[model.ProfileKey(n.From)] = model.ProfileKey(n.To)
	}

	for _, name := range batch {
		requested := model.ProfileKey(name)
		lookup := requested
		if to, ok := normalized[requested]; ok {
			lookup = to
		}
		profile, ok := returned[lookup]
		if !ok {
			profile = model.UserProfile{Name: name, Missing: true}
		}
		profiles[requested] = profile
	}
	return nil
}

// lookupNames deduplicates names case-insensitively, drops numeric and IP
// names, and sorts by key
func lookupNames(usernames []string) []string {
	seen := make(map[string]bool, len(usernames))
	var names []string
	for _, raw := range usernames {
		name := strings.TrimSpace(raw)
		if name == "" || isNumeric(name) || trust.IsIPLiteral(name) {
			continue
		}
		key := model.ProfileKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return model.ProfileKey(names[i]) < model.ProfileKey(names[j])
	})
	return names
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
