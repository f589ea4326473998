package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountInfoFormat(t *testing.T) {
	n := 30000

	assert.Equal(t, "12", CountInfo{}.Format(12))
	assert.Equal(t, "30000", CountInfo{Count: &n}.Format(12))
	assert.Equal(t, "30000+", CountInfo{Count: &n, Capped: true}.Format(12))
}
