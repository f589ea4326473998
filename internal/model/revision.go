package model

import (
	"strconv"
	"time"
)

// Revision is a single page revision as returned by the revisions API (formatversion=2)
type Revision struct {
	Timestamp string `json:"timestamp,omitempty"` // ISO-8601, e.g. 2024-03-01T12:00:00Z
	User      string `json:"user,omitempty"`      // Empty when the user name is hidden
	UserID    *int64 `json:"userid,omitempty"`    // 0 for anonymous editors, nil when not requested
	Comment   string `json:"comment,omitempty"`   // Edit summary
	Size      *int   `json:"size,omitempty"`      // Page size in bytes after this revision
	RevID     *int64 `json:"revid,omitempty"`
	ParentID  *int64 `json:"parentid,omitempty"`
}

// Time parses the revision timestamp. The second return is false when the
// timestamp is absent or unparseable.
func (r Revision) Time() (time.Time, bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CountInfo is the result of an aggregate count endpoint
type CountInfo struct {
	Count  *int `json:"count"`  // nil when the count is unknown
	Capped bool `json:"capped"` // Count hit the endpoint cap and is a lower bound
}

// Known reports whether the count endpoint returned a number
func (c CountInfo) Known() bool {
	return c.Count != nil
}

// Format renders the count for display, falling back to the sample size when
// the count is unknown. Capped counts get a trailing "+".
func (c CountInfo) Format(fallback int) string {
	if !c.Known() {
		return strconv.Itoa(fallback)
	}
	if c.Capped {
		return strconv.Itoa(*c.Count) + "+"
	}
	return strconv.Itoa(*c.Count)
}
