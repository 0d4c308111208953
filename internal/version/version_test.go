package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origSHA := Version, GitSHA
	defer func() { Version, GitSHA = origVersion, origSHA }()

	assert.Equal(t, "dev+unknown", String())

	Version, GitSHA = "0.4.0", "abc1234"
	assert.Equal(t, "0.4.0+abc1234", String())
}
