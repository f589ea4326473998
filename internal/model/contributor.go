package model

import (
	"strings"
	"time"
)

// UserProfile holds account metadata from the user batch-lookup endpoint
type UserProfile struct {
	Name         string   `json:"name"`
	EditCount    int      `json:"edit_count"`
	Registration string   `json:"registration,omitempty"` // ISO-8601; empty when unknown
	Groups       []string `json:"groups,omitempty"`
	Missing      bool     `json:"missing"` // Looked up but no account record was returned
}

// InGroup reports whether the account belongs to any of the given groups
func (p UserProfile) InGroup(groups map[string]bool) bool {
	for _, g := range p.Groups {
		if groups[strings.ToLower(g)] {
			return true
		}
	}
	return false
}

// RegisteredAt parses the registration date
func (p UserProfile) RegisteredAt() (time.Time, bool) {
	if p.Registration == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, p.Registration)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ProfileKey returns the lookup key for a user name in a profile table
func ProfileKey(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

// ContributorLevel is the trust classification of an editor
type ContributorLevel string

const (
	LevelAnonymous    ContributorLevel = "anonymous"
	LevelNew          ContributorLevel = "new"
	LevelIntermediate ContributorLevel = "intermediate"
	LevelEstablished  ContributorLevel = "established"
	LevelRecognized   ContributorLevel = "recognized"
	LevelUnknown      ContributorLevel = "unknown"
)

// Recognized reports whether the level counts as a high-trust signal
func (l ContributorLevel) Recognized() bool {
	return l == LevelEstablished || l == LevelRecognized
}

// Rank orders levels from least to most trusted. Anonymous and unknown both
// rank lowest.
func (l ContributorLevel) Rank() int {
	switch l {
	case LevelNew:
		return 1
	case LevelIntermediate:
		return 2
	case LevelEstablished:
		return 3
	case LevelRecognized:
		return 4
	default:
		return 0
	}
}
