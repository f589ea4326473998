package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"revision cap", func(c *Config) { c.Wiki.MaxRevisions = MaxRevisionsCap }, ""},
		{"no revisions", func(c *Config) { c.Wiki.MaxRevisions = 0 }, "wiki.max_revisions"},
		{"above cap", func(c *Config) { c.Wiki.MaxRevisions = 5000 }, "wiki.max_revisions"},
		{"negative latest", func(c *Config) { c.Wiki.LatestRevisions = -1 }, "wiki.latest_revisions"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"no workers", func(c *Config) { c.Concurrency.Workers = 0 }, "concurrency.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
