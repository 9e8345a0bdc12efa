package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/linkrank/internal/config"
)

func TestConfigInit_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Storage.Backend, cfg.Storage.Backend)

	_, err = executeCommand(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCommand(t, "--config", path, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[embedding]
provider = "openai"
api_key = "sk-secret-1234"
`), 0600))

	out, err := executeCommand(t, "--config", path, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "provider = 'openai'")
}

func TestConfigSetGetUnset(t *testing.T) {
	env := setupTestServices(t)

	_, err := executeCommand(t, "config", "set", "rewards.link_points", "50")
	require.NoError(t, err)
	val, ok := env.config.Get("rewards.link_points")
	require.True(t, ok)
	assert.Equal(t, int64(50), val)

	out, err := executeCommand(t, "config", "get", "rewards.link_points")
	require.NoError(t, err)
	assert.Contains(t, out, "50")

	out, err = executeCommand(t, "config", "unset", "rewards.link_points")
	require.NoError(t, err)
	assert.Contains(t, out, "Unset rewards.link_points")

	_, err = executeCommand(t, "config", "get", "rewards.link_points")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not set")
}

func TestConfigSet_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := executeCommand(t, "--config", path, "config", "set", "embedding.model", "all-minilm")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{input: "true", want: true},
		{input: "false", want: false},
		{input: "1", want: int64(1)},
		{input: "-20", want: int64(-20)},
		{input: "2.5", want: 2.5},
		{input: "ollama", want: "ollama"},
		{input: "TRUE", want: "TRUE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseConfigValue(tt.input))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("abc"))
	assert.Equal(t, "****wxyz", maskAPIKey("sk-abcdwxyz"))
}
