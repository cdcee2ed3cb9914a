package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	old := version
	version = "1.2.3"
	defer func() { version = old }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Equal(t, "tanatag version 1.2.3\n", out)
}
