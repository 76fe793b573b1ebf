package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestKey(t *testing.T) {
	assert.Equal(t, "manifest:col-1:public", ManifestKey("col-1", "public"))
	assert.Equal(t, "manifest:col-1:user-42", ManifestKey("col-1", "user-42"))
}

func TestManifestPattern(t *testing.T) {
	// One playlist's pattern must match every caller variant of that
	// playlist and nothing else.
	assert.Equal(t, "manifest:col-1:*", manifestPattern("col-1"))
	assert.Equal(t, "manifest:*", manifestPattern("*"))
}
