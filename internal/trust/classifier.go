package trust

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/wikitrust/internal/model"
)

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// Classifier maps an editor to a contributor level. It performs no I/O.
type Classifier struct {
	highTrust map[string]bool
	trusted   map[string]bool
	cfg       model.TrustConfig
}

// NewClassifier creates a classifier from the trust policy. A nil config
// uses the defaults.
func NewClassifier(cfg *model.TrustConfig) *Classifier {
	if cfg == nil {
		cfg = &model.DefaultConfig().Trust
	}
	return &Classifier{
		highTrust: groupSet(cfg.HighTrustGroups),
		trusted:   groupSet(cfg.TrustedGroups),
		cfg:       *cfg,
	}
}

// IsAnonymous reports whether an editor is anonymous: an explicit user id of
// 0, or no id at all and an IPv4 literal as the name.
func IsAnonymous(user string, userID *int64) bool {
	if userID != nil {
		return *userID == 0
	}
	return ipv4Pattern.MatchString(strings.TrimSpace(user))
}

// IsIPLiteral reports whether name looks like an IPv4 or IPv6 address
func IsIPLiteral(name string) bool {
	name = strings.TrimSpace(name)
	if ipv4Pattern.MatchString(name) {
		return true
	}
	// IPv6 editors show up with colons; account names cannot contain one
	return strings.Count(name, ":") >= 2 && strings.Trim(strings.ToLower(name), "0123456789abcdef:") == ""
}

// Classify returns the trust level of user at time now
func (c *Classifier) Classify(user string, userID *int64, profiles map[string]model.UserProfile, now time.Time) model.ContributorLevel {
	if IsAnonymous(user, userID) {
		return model.LevelAnonymous
	}

	profile, ok := profiles[model.ProfileKey(user)]
	if !ok || profile.Missing {
		return model.LevelUnknown
	}

	// Group membership short-circuits each tier before the edit count
	switch {
	case profile.InGroup(c.highTrust):
		return model.LevelRecognized
	case profile.EditCount >= c.cfg.RecognizedEdits:
		return model.LevelRecognized
	case profile.InGroup(c.trusted):
		return model.LevelEstablished
	case profile.EditCount >= c.cfg.EstablishedEdits:
		return model.LevelEstablished
	case profile.EditCount >= c.cfg.IntermediateEdits:
		return model.LevelIntermediate
	}

	if registered, ok := profile.RegisteredAt(); ok {
		if now.Sub(registered) <= time.Duration(c.cfg.NewAccountDays)*24*time.Hour {
			return model.LevelNew
		}
	}
	if profile.EditCount < c.cfg.NewEdits {
		return model.LevelNew
	}

	return model.LevelIntermediate
}

func groupSet(groups []string) map[string]bool {
	set := make(map[string]bool, len(groups))
	for _, g := range groups {
		set[strings.ToLower(strings.TrimSpace(g))] = true
	}
	return set
}
