package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig points the settings store at a throwaway directory.
func useTempConfig(t *testing.T) {
	t.Helper()
	oldStore, oldDir := configStore, flagConfigDir
	configStore = nil
	flagConfigDir = t.TempDir()
	t.Cleanup(func() {
		configStore = oldStore
		flagConfigDir = oldDir
	})
}

func TestSettingsSetAndShow(t *testing.T) {
	useTempConfig(t)

	_, err := execute(t, "settings", "set", "workspace.id", "M9abc123")
	require.NoError(t, err)

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "workspace.id")
	assert.Contains(t, out, "M9abc123")
	assert.Contains(t, out, "(default)")
}

func TestSettingsShow_MasksToken(t *testing.T) {
	useTempConfig(t)

	_, err := execute(t, "settings", "set", "graph.token", "tana_secret_token_12345")
	require.NoError(t, err)

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "tana_secret_token_12345")
	assert.Contains(t, out, "tana...2345")
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, int64(5), coerceValue("5"))
	assert.Equal(t, 0.25, coerceValue("0.25"))
	assert.Equal(t, true, coerceValue("true"))
	assert.Equal(t, []string{"SYS_T01", "SYS_T02"}, coerceValue("SYS_T01, SYS_T02"))
	assert.Equal(t, "ollama", coerceValue("ollama"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd...wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
