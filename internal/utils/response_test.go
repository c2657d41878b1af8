package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashFingerprint(t *testing.T) {
	h := HashFingerprint("visitor-abc123")
	assert.Len(t, h, 16)
	assert.NotContains(t, h, "visitor-abc123")
	assert.Equal(t, h, HashFingerprint("visitor-abc123"))
	assert.NotEqual(t, h, HashFingerprint("visitor-abc124"))
}
