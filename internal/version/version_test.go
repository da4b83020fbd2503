package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origV, origSHA, origTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = origV, origSHA, origTime }()

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2024-05-01T10:00:00Z"
	assert.Equal(t, "jetfinder 1.2.0 (commit abc123, built 2024-05-01T10:00:00Z)", String("jetfinder"))
}
